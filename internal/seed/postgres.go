package seed

import (
	"context"
	"database/sql"
	"fmt"
)

const truncateStatement = `TRUNCATE TABLE "LineItem", "Payment", "Invoice", "Vendor", "Customer" RESTART IDENTITY CASCADE`

// PostgresSink inserts each invoice with its vendor, customer, line items and
// payments in a single transaction. Vendors and customers are upserted on
// their natural keys and never updated.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string {
	return "postgres"
}

func (s *PostgresSink) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, truncateStatement); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// Write stores inv and records the ids PostgreSQL assigned in inv.IDs once
// the transaction commits.
func (s *PostgresSink) Write(ctx context.Context, inv *Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	vendorID, err := upsertParty(ctx, tx, `INSERT INTO "Vendor" ("vendor_id", "name", "address")
VALUES ($1, $2, $3)
ON CONFLICT ("vendor_id") DO UPDATE SET "vendor_id" = EXCLUDED."vendor_id"
RETURNING "id"`, inv.Vendor)
	if err != nil {
		return fmt.Errorf("upsert vendor %q: %w", inv.Vendor.Key, err)
	}
	customerID, err := upsertParty(ctx, tx, `INSERT INTO "Customer" ("customer_id", "name", "address")
VALUES ($1, $2, $3)
ON CONFLICT ("customer_id") DO UPDATE SET "customer_id" = EXCLUDED."customer_id"
RETURNING "id"`, inv.Customer)
	if err != nil {
		return fmt.Errorf("upsert customer %q: %w", inv.Customer.Key, err)
	}

	var invoiceID int64
	err = tx.QueryRowContext(ctx, `INSERT INTO "Invoice" ("invoice_id", "vendorId", "customerId", "date", "due_date", "status", "currency", "total_amount")
VALUES ($1, $2, $3, $4, NULL, $5, $6, $7)
RETURNING "id"`,
		inv.InvoiceID, vendorID, customerID, inv.Date, inv.Status, inv.Currency, inv.TotalAmount,
	).Scan(&invoiceID)
	if err != nil {
		return fmt.Errorf("insert invoice %q: %w", inv.InvoiceID, err)
	}

	for _, item := range inv.LineItems {
		if _, err := tx.ExecContext(ctx, `INSERT INTO "LineItem" ("invoiceId", "description", "quantity", "unit_price", "total")
VALUES ($1, $2, $3, $4, $5)`, invoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}
	paymentIDs := make([]int64, 0, len(inv.Payments))
	for _, payment := range inv.Payments {
		var paymentID int64
		if err := tx.QueryRowContext(ctx, `INSERT INTO "Payment" ("invoiceId", "paid_at", "amount", "method")
VALUES ($1, $2, $3, $4)
RETURNING "id"`, invoiceID, payment.PaidAt, payment.Amount, payment.Method).Scan(&paymentID); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		paymentIDs = append(paymentIDs, paymentID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	inv.IDs = &RowIDs{Vendor: vendorID, Customer: customerID, Invoice: invoiceID, Payments: paymentIDs}
	return nil
}

// Flush is a no-op; every Write commits on its own.
func (s *PostgresSink) Flush(context.Context) error {
	return nil
}

func upsertParty(ctx context.Context, tx *sql.Tx, statement string, party Party) (int64, error) {
	var address any
	if party.Address != "" {
		address = party.Address
	}
	var id int64
	if err := tx.QueryRowContext(ctx, statement, party.Key, party.Name, address).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
