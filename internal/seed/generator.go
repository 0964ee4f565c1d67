package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	vendorNames   = []string{"Acme GmbH", "Globex AG", "Initech Ltd", "Umbrella Supplies", "Stark Components", "Wayne Logistics", "Hooli Cloud", "Vandelay Imports"}
	customerNames = []string{"Northwind Traders", "Contoso Retail", "Fabrikam Inc", "Tailspin Toys", "Adventure Works"}
	itemLabels    = []string{"Consulting hours", "Cloud subscription", "Office supplies", "Freight", "Hardware maintenance", "Software licence"}
	paymentKinds  = []string{"Bank Transfer", "Credit Card", "SEPA Direct Debit"}
)

// Generator produces synthetic invoices. Output is fully determined by the
// seed and the start date.
type Generator struct {
	rnd      *rand.Rand
	start    time.Time
	sequence int64
}

func NewGenerator(seed int64, start time.Time) *Generator {
	if start.IsZero() {
		start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		start: start.UTC(),
	}
}

func (g *Generator) Next() Invoice {
	g.sequence++

	vendorIdx := g.rnd.Intn(len(vendorNames))
	customerIdx := g.rnd.Intn(len(customerNames))
	date := g.start.AddDate(0, 0, g.rnd.Intn(365))

	itemCount := 1 + g.rnd.Intn(3)
	items := make([]LineItem, 0, itemCount)
	total := 0.0
	for i := 0; i < itemCount; i++ {
		quantity := float64(1 + g.rnd.Intn(10))
		unitPrice := round2(10 + g.rnd.Float64()*490)
		lineTotal := round2(quantity * unitPrice)
		total += lineTotal
		items = append(items, LineItem{
			Description: pickOne(g.rnd, itemLabels),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Total:       lineTotal,
		})
	}
	total = round2(total)

	payments := []Payment{}
	switch p := g.rnd.Intn(100); {
	case p < 70:
		payments = append(payments, Payment{PaidAt: date.AddDate(0, 0, g.rnd.Intn(30)), Amount: total, Method: pickOne(g.rnd, paymentKinds)})
	case p < 90:
		first := round2(total / 2)
		payments = append(payments,
			Payment{PaidAt: date.AddDate(0, 0, g.rnd.Intn(15)), Amount: first, Method: pickOne(g.rnd, paymentKinds)},
			Payment{PaidAt: date.AddDate(0, 0, 15+g.rnd.Intn(30)), Amount: round2(total - first), Method: pickOne(g.rnd, paymentKinds)},
		)
	}

	return Invoice{
		InvoiceID: fmt.Sprintf("SYN-%06d", g.sequence),
		Vendor: Party{
			Key:     fmt.Sprintf("V%03d", vendorIdx+1),
			Name:    vendorNames[vendorIdx],
			Address: fmt.Sprintf("%d Market Street", 10+vendorIdx),
		},
		Customer: Party{
			Key:  customerNames[customerIdx],
			Name: customerNames[customerIdx],
		},
		Date:        date,
		Status:      invoiceStatus,
		Currency:    defaultCurrency,
		TotalAmount: total,
		LineItems:   items,
		Payments:    payments,
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
