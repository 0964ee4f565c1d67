package seed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/querybridge/querybridge/internal/schema"
	"github.com/querybridge/querybridge/internal/storage"
)

// SnapshotSink buffers invoices in memory and writes one Parquet snapshot
// per snapshot table on Flush. Ids come from Invoice.IDs when an earlier
// sink assigned them; otherwise they are numbered the way SERIAL columns
// would number them, starting from 1. A flush replaces existing snapshots.
type SnapshotSink struct {
	store  storage.ObjectStore
	prefix string

	vendorIDs   map[string]int64
	customerIDs map[string]int64
	vendors     []schema.VendorRow
	customers   []schema.CustomerRow
	invoices    []schema.InvoiceRow
	payments    []schema.PaymentRow
}

func NewSnapshotSink(store storage.ObjectStore, prefix string) *SnapshotSink {
	return &SnapshotSink{
		store:       store,
		prefix:      prefix,
		vendorIDs:   map[string]int64{},
		customerIDs: map[string]int64{},
	}
}

func (s *SnapshotSink) Name() string {
	return "parquet"
}

func (s *SnapshotSink) Truncate(ctx context.Context) error {
	for _, table := range schema.SnapshotTables() {
		if err := storage.RemoveSnapshot(ctx, s.store, s.prefix, table.Name); err != nil {
			return fmt.Errorf("remove %s snapshot: %w", table.Name, err)
		}
	}
	return nil
}

func (s *SnapshotSink) Write(_ context.Context, inv *Invoice) error {
	ids := inv.IDs
	if ids != nil && len(ids.Payments) != len(inv.Payments) {
		return fmt.Errorf("invoice %q: %d payment ids for %d payments", inv.InvoiceID, len(ids.Payments), len(inv.Payments))
	}

	vendorID, ok := s.vendorIDs[inv.Vendor.Key]
	if !ok {
		vendorID = int64(len(s.vendors) + 1)
		if ids != nil {
			vendorID = ids.Vendor
		}
		s.vendorIDs[inv.Vendor.Key] = vendorID
		s.vendors = append(s.vendors, schema.VendorRow{
			ID:        vendorID,
			VendorKey: inv.Vendor.Key,
			Name:      inv.Vendor.Name,
			Address:   inv.Vendor.Address,
		})
	}
	customerID, ok := s.customerIDs[inv.Customer.Key]
	if !ok {
		customerID = int64(len(s.customers) + 1)
		if ids != nil {
			customerID = ids.Customer
		}
		s.customerIDs[inv.Customer.Key] = customerID
		s.customers = append(s.customers, schema.CustomerRow{
			ID:          customerID,
			CustomerKey: inv.Customer.Key,
			Name:        inv.Customer.Name,
			Address:     inv.Customer.Address,
		})
	}

	invoiceID := int64(len(s.invoices) + 1)
	if ids != nil {
		invoiceID = ids.Invoice
	}
	s.invoices = append(s.invoices, schema.InvoiceRow{
		ID:          invoiceID,
		InvoiceKey:  inv.InvoiceID,
		VendorID:    vendorID,
		CustomerID:  customerID,
		Date:        inv.Date,
		Status:      inv.Status,
		Currency:    inv.Currency,
		TotalAmount: inv.TotalAmount,
	})
	for i, payment := range inv.Payments {
		paymentID := int64(len(s.payments) + 1)
		if ids != nil {
			paymentID = ids.Payments[i]
		}
		s.payments = append(s.payments, schema.PaymentRow{
			ID:        paymentID,
			InvoiceID: invoiceID,
			Amount:    payment.Amount,
			PaidAt:    payment.PaidAt,
		})
	}
	return nil
}

func (s *SnapshotSink) Flush(ctx context.Context) error {
	snapshots := []struct {
		table  string
		encode func() ([]byte, error)
	}{
		{table: "Invoice", encode: func() ([]byte, error) { return encodeParquet(s.invoices) }},
		{table: "Vendor", encode: func() ([]byte, error) { return encodeParquet(s.vendors) }},
		{table: "Customer", encode: func() ([]byte, error) { return encodeParquet(s.customers) }},
		{table: "Payment", encode: func() ([]byte, error) { return encodeParquet(s.payments) }},
	}
	for _, snapshot := range snapshots {
		data, err := snapshot.encode()
		if err != nil {
			return fmt.Errorf("encode %s snapshot: %w", snapshot.table, err)
		}
		if _, err := storage.WriteSnapshot(ctx, s.store, s.prefix, snapshot.table, data); err != nil {
			return err
		}
	}
	return nil
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
