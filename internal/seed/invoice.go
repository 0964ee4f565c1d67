// Package seed loads demo data into the business tables. Invoices come either
// from an analytics export (JSON documents) or from a deterministic synthetic
// generator, and are written to PostgreSQL, to Parquet snapshots, or both.
package seed

import "time"

const (
	invoiceStatus        = "Processed"
	defaultCurrency      = "EUR"
	unknownCustomerID    = "UnknownCustomer"
	unknownCustomerName  = "Unknown Customer"
	defaultItemLabel     = "Service/Product"
	autoItemLabel        = "Auto-generated item"
	defaultPaymentMethod = "Bank Transfer"
	autoPaymentMethod    = "Auto-Generated"
)

type Party struct {
	Key     string
	Name    string
	Address string
}

type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

type Payment struct {
	PaidAt time.Time
	Amount float64
	Method string
}

// Invoice is one fully mapped invoice with its vendor, customer and children.
type Invoice struct {
	InvoiceID   string
	Vendor      Party
	Customer    Party
	Date        time.Time
	Status      string
	Currency    string
	TotalAmount float64
	LineItems   []LineItem
	Payments    []Payment

	// IDs is set by the first sink that assigns database ids. Later sinks
	// reuse them so every target numbers rows the same way.
	IDs *RowIDs
}

// RowIDs are the SERIAL ids PostgreSQL assigned to one invoice and its
// parents. Payments is parallel to Invoice.Payments.
type RowIDs struct {
	Vendor   int64
	Customer int64
	Invoice  int64
	Payments []int64
}
