package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/querybridge/querybridge/internal/query"
)

type scriptedExecutor struct {
	records []query.Record
	err     error
	queries []string
}

func (e *scriptedExecutor) Execute(_ context.Context, sqlText string) (query.Result, error) {
	e.queries = append(e.queries, sqlText)
	return query.Result{Records: e.records}, e.err
}

func (e *scriptedExecutor) Backend() string { return "scripted" }

func records(columns []string, rows ...[]any) []query.Record {
	out := make([]query.Record, 0, len(rows))
	for _, values := range rows {
		out = append(out, query.NewRecord(columns, values))
	}
	return out
}

func TestStats(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"total_spend", "total_invoices", "avg_invoice_value"},
		[]any{350.5, int64(3), 116.75},
	)}
	stats, err := NewService(executor).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	encoded, _ := json.Marshal(stats)
	if string(encoded) != `{"totalSpend":350.5,"totalInvoices":3,"avgInvoiceValue":116.75}` {
		t.Fatalf("Stats() = %s", encoded)
	}
	if !strings.Contains(executor.queries[0], `COALESCE(SUM("total_amount"), 0)`) {
		t.Fatalf("query = %s", executor.queries[0])
	}
}

func TestStatsOnEmptyTable(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"total_spend", "total_invoices", "avg_invoice_value"},
		[]any{int64(0), int64(0), int64(0)},
	)}
	stats, err := NewService(executor).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats != (Stats{}) {
		t.Fatalf("Stats() = %+v", stats)
	}
}

func TestInvoicesSearchEscapesPattern(t *testing.T) {
	executor := &scriptedExecutor{}
	if _, err := NewService(executor).Invoices(context.Background(), `  O'Brien 100%_ `); err != nil {
		t.Fatalf("Invoices() error = %v", err)
	}
	sqlText := executor.queries[0]
	if !strings.Contains(sqlText, `LIKE '%o''brien 100\%\_%' ESCAPE '\'`) {
		t.Fatalf("query = %s", sqlText)
	}
	if strings.Count(sqlText, "LIKE") != 3 || !strings.HasSuffix(sqlText, "LIMIT 50") {
		t.Fatalf("query = %s", sqlText)
	}
}

func TestInvoicesWithoutSearchHasNoFilter(t *testing.T) {
	executor := &scriptedExecutor{}
	invoices, err := NewService(executor).Invoices(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Invoices() error = %v", err)
	}
	if invoices == nil || len(invoices) != 0 {
		t.Fatalf("Invoices() = %#v", invoices)
	}
	if strings.Contains(executor.queries[0], "WHERE") {
		t.Fatalf("query = %s", executor.queries[0])
	}
}

func TestInvoicesMapsJoinedRows(t *testing.T) {
	day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	executor := &scriptedExecutor{records: records(
		[]string{"id", "invoice_id", "vendorId", "customerId", "date", "status", "currency", "total_amount",
			"vendor_id", "vendor_name", "vendor_address", "customer_id", "customer_name", "customer_address"},
		[]any{int64(7), "INV-7", int32(2), int64(5), day, "Processed", "EUR", 99.5,
			"V-2", "Globex", nil, "C-5", "Umbrella", "Main St 1"},
	)}
	invoices, err := NewService(executor).Invoices(context.Background(), "")
	if err != nil {
		t.Fatalf("Invoices() error = %v", err)
	}
	encoded, _ := json.Marshal(invoices)
	want := `[{"id":7,"invoice_id":"INV-7","vendorId":2,"customerId":5,"date":"2025-03-01T00:00:00Z","status":"Processed","currency":"EUR","total_amount":99.5,` +
		`"vendor":{"id":2,"vendor_id":"V-2","name":"Globex","address":null},` +
		`"customer":{"id":5,"customer_id":"C-5","name":"Umbrella","address":"Main St 1"}}]`
	if string(encoded) != want {
		t.Fatalf("Invoices() = %s\nwant %s", encoded, want)
	}
}

func TestTopVendorsKeepsVendorsWithoutInvoices(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"name", "total_spend"},
		[]any{"Acme", 300.0},
		[]any{"Initech", int64(0)},
	)}
	vendors, err := NewService(executor).TopVendors(context.Background())
	if err != nil {
		t.Fatalf("TopVendors() error = %v", err)
	}
	if len(vendors) != 2 || vendors[1] != (VendorSpend{Name: "Initech"}) {
		t.Fatalf("TopVendors() = %+v", vendors)
	}
	if !strings.Contains(executor.queries[0], "LEFT JOIN") || !strings.HasSuffix(executor.queries[0], "LIMIT 10") {
		t.Fatalf("query = %s", executor.queries[0])
	}
}

func TestInvoiceTrendsFormatsMonth(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"invoice_year", "invoice_month", "total"},
		// PostgreSQL EXTRACT yields NUMERIC, DuckDB yields BIGINT.
		[]any{2025.0, 3.0, 150.5},
		[]any{int64(2025), int64(11), 200.0},
	)}
	trends, err := NewService(executor).InvoiceTrends(context.Background())
	if err != nil {
		t.Fatalf("InvoiceTrends() error = %v", err)
	}
	if len(trends) != 2 || trends[0] != (MonthTotal{Month: "2025-03", Total: 150.5}) || trends[1].Month != "2025-11" {
		t.Fatalf("InvoiceTrends() = %+v", trends)
	}
}

func TestCategorySpend(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"category", "total"},
		[]any{"Other", 10.0},
		[]any{"Processed", 340.5},
	)}
	categories, err := NewService(executor).CategorySpend(context.Background())
	if err != nil {
		t.Fatalf("CategorySpend() error = %v", err)
	}
	if len(categories) != 2 || categories[0].Category != "Other" || categories[1].Total != 340.5 {
		t.Fatalf("CategorySpend() = %+v", categories)
	}
	if !strings.Contains(executor.queries[0], `COALESCE(NULLIF("status", ''), 'Other')`) {
		t.Fatalf("query = %s", executor.queries[0])
	}
}

func TestCashOutflowFormatsDay(t *testing.T) {
	executor := &scriptedExecutor{records: records(
		[]string{"paid_on", "total"},
		[]any{time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC), 100.0},
		[]any{"2025-03-08", 50.5},
	)}
	days, err := NewService(executor).CashOutflow(context.Background())
	if err != nil {
		t.Fatalf("CashOutflow() error = %v", err)
	}
	if len(days) != 2 || days[0] != (DayTotal{Date: "2025-03-04", Total: 100}) || days[1].Date != "2025-03-08" {
		t.Fatalf("CashOutflow() = %+v", days)
	}
}

func TestExecutorErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&scriptedExecutor{err: boom})
	if _, err := svc.Stats(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Stats() error = %v", err)
	}
	if _, err := svc.CashOutflow(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("CashOutflow() error = %v", err)
	}
}

func TestServiceWithoutExecutor(t *testing.T) {
	if _, err := NewService(nil).TopVendors(context.Background()); !errors.Is(err, query.ErrNotConfigured) {
		t.Fatalf("TopVendors() error = %v", err)
	}
	var svc *Service
	if _, err := svc.Stats(context.Background()); !errors.Is(err, query.ErrNotConfigured) {
		t.Fatalf("Stats() error = %v", err)
	}
}
