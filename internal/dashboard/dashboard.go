// Package dashboard serves the fixed aggregate queries behind the invoice
// dashboard. The statements are written in the SQL subset PostgreSQL and
// DuckDB share, so they run through whichever query.Executor is configured.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/querybridge/querybridge/internal/observability"
	"github.com/querybridge/querybridge/internal/query"
)

const (
	invoiceSearchLimit = 50
	topVendorLimit     = 10
	otherCategory      = "Other"
)

type Stats struct {
	TotalSpend      float64 `json:"totalSpend"`
	TotalInvoices   int64   `json:"totalInvoices"`
	AvgInvoiceValue float64 `json:"avgInvoiceValue"`
}

type Vendor struct {
	ID       int64   `json:"id"`
	VendorID string  `json:"vendor_id"`
	Name     string  `json:"name"`
	Address  *string `json:"address"`
}

type Customer struct {
	ID         int64   `json:"id"`
	CustomerID string  `json:"customer_id"`
	Name       string  `json:"name"`
	Address    *string `json:"address"`
}

type Invoice struct {
	ID          int64     `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	VendorID    int64     `json:"vendorId"`
	CustomerID  int64     `json:"customerId"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	TotalAmount float64   `json:"total_amount"`
	Vendor      Vendor    `json:"vendor"`
	Customer    Customer  `json:"customer"`
}

type VendorSpend struct {
	Name       string  `json:"name"`
	TotalSpend float64 `json:"totalSpend"`
}

type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type DayTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type Service struct {
	executor query.Executor
}

func NewService(executor query.Executor) *Service {
	return &Service{executor: executor}
}

func (s *Service) run(ctx context.Context, sqlText string) ([]query.Record, error) {
	if s == nil || s.executor == nil {
		return nil, query.ErrNotConfigured
	}
	start := time.Now()
	result, err := s.executor.Execute(ctx, sqlText)
	observability.ObserveQuery(s.executor.Backend(), time.Since(start), len(result.Records), err)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	records, err := s.run(ctx, `SELECT COALESCE(SUM("total_amount"), 0) AS total_spend, COUNT(*) AS total_invoices, COALESCE(AVG("total_amount"), 0) AS avg_invoice_value FROM "Invoice"`)
	if err != nil {
		return Stats{}, err
	}
	if len(records) == 0 {
		return Stats{}, nil
	}
	r := row{records[0]}
	return Stats{
		TotalSpend:      r.number("total_spend"),
		TotalInvoices:   r.integer("total_invoices"),
		AvgInvoiceValue: r.number("avg_invoice_value"),
	}, nil
}

// Invoices returns the most recent invoices, optionally filtered by a
// case-insensitive substring of the invoice number, vendor name or
// customer name.
func (s *Service) Invoices(ctx context.Context, search string) ([]Invoice, error) {
	var where string
	if search = strings.TrimSpace(search); search != "" {
		pattern := quoteLiteral("%" + escapeLike(strings.ToLower(search)) + "%")
		where = fmt.Sprintf(`
WHERE LOWER("i"."invoice_id") LIKE %[1]s ESCAPE '\'
   OR LOWER("v"."name") LIKE %[1]s ESCAPE '\'
   OR LOWER("c"."name") LIKE %[1]s ESCAPE '\'`, pattern)
	}
	sqlText := `SELECT "i"."id", "i"."invoice_id", "i"."vendorId", "i"."customerId", "i"."date", "i"."status", "i"."currency", "i"."total_amount",
       "v"."vendor_id", "v"."name" AS vendor_name, "v"."address" AS vendor_address,
       "c"."customer_id", "c"."name" AS customer_name, "c"."address" AS customer_address
FROM "Invoice" "i"
JOIN "Vendor" "v" ON "v"."id" = "i"."vendorId"
JOIN "Customer" "c" ON "c"."id" = "i"."customerId"` + where + fmt.Sprintf(`
ORDER BY "i"."date" DESC, "i"."id" DESC
LIMIT %d`, invoiceSearchLimit)

	records, err := s.run(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	invoices := make([]Invoice, 0, len(records))
	for _, record := range records {
		r := row{record}
		invoices = append(invoices, Invoice{
			ID:          r.integer("id"),
			InvoiceID:   r.text("invoice_id"),
			VendorID:    r.integer("vendorId"),
			CustomerID:  r.integer("customerId"),
			Date:        r.timestamp("date"),
			Status:      r.text("status"),
			Currency:    r.text("currency"),
			TotalAmount: r.number("total_amount"),
			Vendor: Vendor{
				ID:       r.integer("vendorId"),
				VendorID: r.text("vendor_id"),
				Name:     r.text("vendor_name"),
				Address:  r.optionalText("vendor_address"),
			},
			Customer: Customer{
				ID:         r.integer("customerId"),
				CustomerID: r.text("customer_id"),
				Name:       r.text("customer_name"),
				Address:    r.optionalText("customer_address"),
			},
		})
	}
	return invoices, nil
}

// TopVendors ranks vendors by invoiced total. Vendors without invoices count
// as zero.
func (s *Service) TopVendors(ctx context.Context) ([]VendorSpend, error) {
	records, err := s.run(ctx, fmt.Sprintf(`SELECT "v"."name", COALESCE(SUM("i"."total_amount"), 0) AS total_spend
FROM "Vendor" "v"
LEFT JOIN "Invoice" "i" ON "i"."vendorId" = "v"."id"
GROUP BY "v"."id", "v"."name"
ORDER BY total_spend DESC, "v"."name"
LIMIT %d`, topVendorLimit))
	if err != nil {
		return nil, err
	}
	out := make([]VendorSpend, 0, len(records))
	for _, record := range records {
		r := row{record}
		out = append(out, VendorSpend{Name: r.text("name"), TotalSpend: r.number("total_spend")})
	}
	return out, nil
}

// InvoiceTrends totals invoices per calendar month, oldest first.
func (s *Service) InvoiceTrends(ctx context.Context) ([]MonthTotal, error) {
	records, err := s.run(ctx, `SELECT EXTRACT(YEAR FROM "date") AS invoice_year, EXTRACT(MONTH FROM "date") AS invoice_month, SUM("total_amount") AS total
FROM "Invoice"
GROUP BY 1, 2
ORDER BY 1, 2`)
	if err != nil {
		return nil, err
	}
	out := make([]MonthTotal, 0, len(records))
	for _, record := range records {
		r := row{record}
		out = append(out, MonthTotal{
			Month: fmt.Sprintf("%04d-%02d", r.integer("invoice_year"), r.integer("invoice_month")),
			Total: r.number("total"),
		})
	}
	return out, nil
}

// CategorySpend totals invoices per status. A missing or empty status is
// reported as "Other".
func (s *Service) CategorySpend(ctx context.Context) ([]CategoryTotal, error) {
	records, err := s.run(ctx, `SELECT COALESCE(NULLIF("status", ''), '`+otherCategory+`') AS category, SUM("total_amount") AS total
FROM "Invoice"
GROUP BY 1
ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryTotal, 0, len(records))
	for _, record := range records {
		r := row{record}
		out = append(out, CategoryTotal{Category: r.text("category"), Total: r.number("total")})
	}
	return out, nil
}

// CashOutflow totals payments per day, oldest first.
func (s *Service) CashOutflow(ctx context.Context) ([]DayTotal, error) {
	records, err := s.run(ctx, `SELECT CAST("paid_at" AS DATE) AS paid_on, SUM("amount") AS total
FROM "Payment"
GROUP BY 1
ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	out := make([]DayTotal, 0, len(records))
	for _, record := range records {
		r := row{record}
		out = append(out, DayTotal{Date: r.day("paid_on"), Total: r.number("total")})
	}
	return out, nil
}

func quoteLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
