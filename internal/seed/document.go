package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Document is one record of the analytics export. Every extracted value is
// wrapped as {"value": ...}.
type Document struct {
	ID            json.RawMessage `json:"_id"`
	ExtractedData struct {
		LLMData *LLMData `json:"llmData"`
	} `json:"extractedData"`
}

type LLMData struct {
	Vendor struct {
		Value struct {
			VendorName        field `json:"vendorName"`
			VendorAddress     field `json:"vendorAddress"`
			VendorTaxID       field `json:"vendorTaxId"`
			VendorPartyNumber field `json:"vendorPartyNumber"`
		} `json:"value"`
	} `json:"vendor"`
	Customer struct {
		Value struct {
			CustomerName    field `json:"customerName"`
			CustomerAddress field `json:"customerAddress"`
		} `json:"value"`
	} `json:"customer"`
	Summary struct {
		Value struct {
			InvoiceTotal   field `json:"invoiceTotal"`
			SubTotal       field `json:"subTotal"`
			CurrencySymbol field `json:"currencySymbol"`
			Currency       field `json:"currency"`
		} `json:"value"`
	} `json:"summary"`
	Invoice struct {
		Value struct {
			InvoiceNumber field `json:"invoiceNumber"`
			InvoiceDate   field `json:"invoiceDate"`
		} `json:"value"`
	} `json:"invoice"`
	LineItems struct {
		Value []struct {
			ItemDescription field `json:"itemDescription"`
			Description     field `json:"description"`
			Quantity        field `json:"quantity"`
			UnitPrice       field `json:"unitPrice"`
			Amount          field `json:"amount"`
		} `json:"value"`
	} `json:"lineItems"`
	Payment struct {
		Value []struct {
			PaidAt field `json:"paid_at"`
			Amount field `json:"amount"`
			Method field `json:"method"`
		} `json:"value"`
	} `json:"payment"`
}

type field struct {
	Value json.RawMessage `json:"value"`
}

// text returns the value as a string. Missing, null and false values read as
// empty; numbers keep their JSON spelling.
func (f field) text() string {
	raw := bytes.TrimSpace(f.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if n.String() == "0" {
			return ""
		}
		return n.String()
	}
	return ""
}

// number returns the numeric value, or 0 when it is missing or unparseable.
func (f field) number() float64 {
	raw := strings.TrimSpace(f.text())
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// DecodeDocuments reads a JSON array of export documents.
func DecodeDocuments(r io.Reader) ([]Document, error) {
	var docs []Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

// Mapper turns export documents into invoices. The random source fills in
// generated vendor names, invoice ids and payment offsets.
type Mapper struct {
	rnd *rand.Rand
	now func() time.Time
}

func NewMapper(seed int64) *Mapper {
	return &Mapper{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Map converts the document at position index. ok is false when the document
// carries no extracted data and must be skipped.
func (m *Mapper) Map(doc Document, index int) (inv Invoice, ok bool, err error) {
	llm := doc.ExtractedData.LLMData
	if llm == nil {
		return Invoice{}, false, nil
	}

	vendor := llm.Vendor.Value
	vendorName := vendor.VendorName.text()
	if vendorName == "" {
		vendorName = "Vendor-" + m.randomCode(4)
	}
	inv.Vendor = Party{
		Key:     firstNonEmpty(vendor.VendorPartyNumber.text(), vendor.VendorTaxID.text(), vendorName),
		Name:    vendorName,
		Address: vendor.VendorAddress.text(),
	}

	customerName := llm.Customer.Value.CustomerName.text()
	inv.Customer = Party{
		Key:     firstNonEmpty(customerName, unknownCustomerID),
		Name:    firstNonEmpty(customerName, unknownCustomerName),
		Address: llm.Customer.Value.CustomerAddress.text(),
	}

	summary := llm.Summary.Value
	inv.TotalAmount = summary.InvoiceTotal.number()
	if inv.TotalAmount == 0 {
		inv.TotalAmount = summary.SubTotal.number()
	}
	inv.Currency = strings.TrimSpace(firstNonEmpty(summary.CurrencySymbol.text(), summary.Currency.text()))
	if inv.Currency == "" {
		inv.Currency = defaultCurrency
	}
	inv.Status = invoiceStatus

	inv.Date = m.now()
	if raw := llm.Invoice.Value.InvoiceDate.text(); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return Invoice{}, true, fmt.Errorf("invoice date: %w", err)
		}
		inv.Date = parsed
	}

	for _, item := range llm.LineItems.Value {
		quantity := item.Quantity.number()
		if quantity == 0 {
			quantity = 1
		}
		unitPrice := item.UnitPrice.number()
		total := item.Amount.number()
		if total == 0 {
			total = unitPrice * quantity
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			Description: firstNonEmpty(item.ItemDescription.text(), item.Description.text(), defaultItemLabel),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Total:       total,
		})
	}
	if len(inv.LineItems) == 0 {
		inv.LineItems = []LineItem{{
			Description: autoItemLabel,
			Quantity:    1,
			UnitPrice:   math.Abs(inv.TotalAmount),
			Total:       math.Abs(inv.TotalAmount),
		}}
	}

	for _, payment := range llm.Payment.Value {
		paidAt := inv.Date
		if raw := payment.PaidAt.text(); raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				return Invoice{}, true, fmt.Errorf("payment date: %w", err)
			}
			paidAt = parsed
		}
		inv.Payments = append(inv.Payments, Payment{
			PaidAt: paidAt,
			Amount: math.Abs(payment.Amount.number()),
			Method: firstNonEmpty(payment.Method.text(), defaultPaymentMethod),
		})
	}
	if len(inv.Payments) == 0 {
		inv.Payments = []Payment{{
			PaidAt: inv.Date.AddDate(0, 0, m.rnd.Intn(10)),
			Amount: math.Abs(inv.TotalAmount),
			Method: autoPaymentMethod,
		}}
	}

	switch {
	case llm.Invoice.Value.InvoiceNumber.text() != "":
		inv.InvoiceID = fmt.Sprintf("%s-%d", llm.Invoice.Value.InvoiceNumber.text(), index)
	case documentID(doc.ID) != "":
		inv.InvoiceID = fmt.Sprintf("%s-%d", documentID(doc.ID), index)
	default:
		inv.InvoiceID = fmt.Sprintf("INV-%s-%d", m.randomCode(8), index)
	}
	return inv, true, nil
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (m *Mapper) randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[m.rnd.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// documentID accepts a plain string id or an extended-JSON {"$oid": "..."}.
func documentID(raw json.RawMessage) string {
	if id := (field{Value: raw}).text(); id != "" {
		return id
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return oid.OID
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
