package schema

import "time"

// Snapshot rows. Parquet column names must equal the column names in
// SnapshotTables() so the DuckDB tables loaded from them expose the same
// shape as PostgreSQL.

type InvoiceRow struct {
	ID          int64     `parquet:"id"`
	InvoiceKey  string    `parquet:"invoice_id"`
	VendorID    int64     `parquet:"vendorId"`
	CustomerID  int64     `parquet:"customerId"`
	Date        time.Time `parquet:"date"`
	Status      string    `parquet:"status"`
	Currency    string    `parquet:"currency"`
	TotalAmount float64   `parquet:"total_amount"`
}

type VendorRow struct {
	ID        int64  `parquet:"id"`
	VendorKey string `parquet:"vendor_id"`
	Name      string `parquet:"name"`
	Address   string `parquet:"address,optional"`
}

type CustomerRow struct {
	ID          int64  `parquet:"id"`
	CustomerKey string `parquet:"customer_id"`
	Name        string `parquet:"name"`
	Address     string `parquet:"address,optional"`
}

type PaymentRow struct {
	ID        int64     `parquet:"id"`
	InvoiceID int64     `parquet:"invoiceId"`
	Amount    float64   `parquet:"amount"`
	PaidAt    time.Time `parquet:"paid_at"`
}
