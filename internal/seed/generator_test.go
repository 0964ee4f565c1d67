package seed

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g1 := NewGenerator(42, start)
	g2 := NewGenerator(42, start)

	for i := 0; i < 5; i++ {
		a := g1.Next()
		b := g2.Next()
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("invoice %d differs: %#v vs %#v", i, a, b)
		}
	}
}

func TestGeneratorInvoicesAreConsistent(t *testing.T) {
	g := NewGenerator(99, time.Time{})
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		inv := g.Next()
		if _, ok := seen[inv.InvoiceID]; ok {
			t.Fatalf("duplicate invoice id %s", inv.InvoiceID)
		}
		seen[inv.InvoiceID] = struct{}{}

		sum := 0.0
		for _, item := range inv.LineItems {
			sum += item.Total
		}
		if math.Abs(sum-inv.TotalAmount) > 0.01 {
			t.Fatalf("line items sum %v != total %v", sum, inv.TotalAmount)
		}
		paid := 0.0
		for _, payment := range inv.Payments {
			paid += payment.Amount
			if payment.PaidAt.Before(inv.Date) {
				t.Fatalf("payment before invoice date: %+v", inv)
			}
		}
		if paid > inv.TotalAmount+0.01 {
			t.Fatalf("paid %v exceeds total %v", paid, inv.TotalAmount)
		}
		if inv.Vendor.Key == "" || inv.Customer.Key == "" || inv.Status != "Processed" {
			t.Fatalf("invoice = %+v", inv)
		}
	}
}
