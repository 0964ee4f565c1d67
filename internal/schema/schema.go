// Package schema holds the static description of the business tables that
// questions are answered against. The same definitions drive the LLM
// prompt, the Parquet snapshot layout and the migration consistency tests,
// so a column added here must be added to the migrations as well.
//
// Tables is what the model sees. SnapshotTables is a superset: the
// snapshots also carry the natural keys, the invoice currency and the
// Customer table so the dashboard queries run on DuckDB unchanged.
package schema

import (
	"strings"
)

type Column struct {
	Name string
	Type string
}

type Table struct {
	Name    string
	Columns []Column
}

var tables = []Table{
	{
		Name: "Invoice",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "vendorId", Type: "integer"},
			{Name: "customerId", Type: "integer"},
			{Name: "date", Type: "timestamp"},
			{Name: "total_amount", Type: "double precision"},
			{Name: "status", Type: "text"},
		},
	},
	{
		Name: "Vendor",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "name", Type: "text"},
			{Name: "address", Type: "text"},
		},
	},
	{
		Name: "Payment",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "invoiceId", Type: "integer"},
			{Name: "amount", Type: "double precision"},
			{Name: "paid_at", Type: "timestamp"},
		},
	},
}

var snapshotTables = []Table{
	{
		Name: "Invoice",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "invoice_id", Type: "text"},
			{Name: "vendorId", Type: "integer"},
			{Name: "customerId", Type: "integer"},
			{Name: "date", Type: "timestamp"},
			{Name: "status", Type: "text"},
			{Name: "currency", Type: "text"},
			{Name: "total_amount", Type: "double precision"},
		},
	},
	{
		Name: "Vendor",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "vendor_id", Type: "text"},
			{Name: "name", Type: "text"},
			{Name: "address", Type: "text"},
		},
	},
	{
		Name: "Customer",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "customer_id", Type: "text"},
			{Name: "name", Type: "text"},
			{Name: "address", Type: "text"},
		},
	},
	{
		Name: "Payment",
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "invoiceId", Type: "integer"},
			{Name: "amount", Type: "double precision"},
			{Name: "paid_at", Type: "timestamp"},
		},
	},
}

// Tables returns a copy of the queryable tables in prompt order.
func Tables() []Table {
	return copyTables(tables)
}

// SnapshotTables returns a copy of the tables written to and loaded from
// Parquet snapshots.
func SnapshotTables() []Table {
	return copyTables(snapshotTables)
}

func copyTables(src []Table) []Table {
	out := make([]Table, 0, len(src))
	for _, table := range src {
		columns := make([]Column, len(table.Columns))
		copy(columns, table.Columns)
		out = append(out, Table{Name: table.Name, Columns: columns})
	}
	return out
}

func Lookup(name string) (Table, bool) {
	for _, table := range Tables() {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}

func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		names = append(names, column.Name)
	}
	return names
}

// Overview renders the tables as prompt lines:
//
//	- "Invoice" ("id", "vendorId", ...)
func Overview() string {
	var b strings.Builder
	for i, table := range tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(QuoteIdent(table.Name))
		b.WriteString(" (")
		for j, column := range table.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteIdent(column.Name))
		}
		b.WriteString(")")
	}
	return b.String()
}

func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
