package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/querybridge/querybridge/internal/observability"
)

func registerDashboardRoutes(mux *http.ServeMux, deps Dependencies) {
	svc := deps.Dashboard
	mux.HandleFunc("GET /stats", dashboardRoute(deps, "Failed to fetch stats", func(ctx context.Context, _ *http.Request) (any, error) {
		return svc.Stats(ctx)
	}))
	mux.HandleFunc("GET /invoices", dashboardRoute(deps, "Failed to fetch invoices", func(ctx context.Context, r *http.Request) (any, error) {
		return svc.Invoices(ctx, r.URL.Query().Get("q"))
	}))
	mux.HandleFunc("GET /vendors/top10", dashboardRoute(deps, "Failed to fetch top vendors", func(ctx context.Context, _ *http.Request) (any, error) {
		return svc.TopVendors(ctx)
	}))
	mux.HandleFunc("GET /invoice-trends", dashboardRoute(deps, "Failed to fetch invoice trends", func(ctx context.Context, _ *http.Request) (any, error) {
		return svc.InvoiceTrends(ctx)
	}))
	mux.HandleFunc("GET /category-spend", dashboardRoute(deps, "Failed to fetch category spend", func(ctx context.Context, _ *http.Request) (any, error) {
		return svc.CategorySpend(ctx)
	}))
	mux.HandleFunc("GET /cash-outflow", dashboardRoute(deps, "Failed to fetch cash outflow", func(ctx context.Context, _ *http.Request) (any, error) {
		return svc.CashOutflow(ctx)
	}))
}

// dashboardRoute answers with the fetched payload, or 500 and a fixed
// {"error": failure} body that the dashboard shows verbatim.
func dashboardRoute(deps Dependencies, failure string, fetch func(ctx context.Context, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := fetch(r.Context(), r)
		if err != nil {
			observability.RequestLogger(r.Context(), deps.Logger).Error("dashboard query failed",
				slog.String("route", r.Pattern),
				slog.Any("error", err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": failure})
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
