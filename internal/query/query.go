package query

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("database is not configured")

// Record is one result row as ordered column/value pairs. It encodes to a
// JSON object whose keys follow the result descriptor order.
type Record struct {
	columns []string
	values  []any
}

// NewRecord zips columns and values. A repeated column name keeps its first
// position and takes the last value.
func NewRecord(columns []string, values []any) Record {
	record := Record{
		columns: make([]string, 0, len(columns)),
		values:  make([]any, 0, len(columns)),
	}
	positions := make(map[string]int, len(columns))
	for i, column := range columns {
		var value any
		if i < len(values) {
			value = values[i]
		}
		if pos, ok := positions[column]; ok {
			record.values[pos] = value
			continue
		}
		positions[column] = len(record.columns)
		record.columns = append(record.columns, column)
		record.values = append(record.values, value)
	}
	return record
}

func (r Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

func (r Record) Get(column string) (any, bool) {
	for i, name := range r.columns {
		if name == column {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r Record) Len() int {
	return len(r.columns)
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Result struct {
	Columns  []string
	Records  []Record
	Duration time.Duration
}

// Executor runs a sanitized SELECT and materialises its rows.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
	Backend() string
}

// ScanRows drains rows into records. The returned slice is empty, not nil,
// when the query matched nothing.
func ScanRows(rows *sql.Rows) ([]string, []Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, fmt.Errorf("query column types: %w", err)
	}
	numeric := make([]bool, len(columns))
	for i, columnType := range types {
		if i < len(numeric) {
			numeric[i] = isNumericType(columnType.DatabaseTypeName())
		}
	}

	records := make([]Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, NewRecord(columns, normalizeValues(values, numeric)))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, records, nil
}

type float64Valuer interface {
	Float64() float64
}

// isNumericType reports arbitrary-precision column types. pgx hands NUMERIC
// values to database/sql as decimal strings.
func isNumericType(name string) bool {
	name = strings.ToUpper(name)
	return name == "NUMERIC" || strings.HasPrefix(name, "NUMERIC(") ||
		name == "DECIMAL" || strings.HasPrefix(name, "DECIMAL(")
}

func normalizeValues(values []any, numeric []bool) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		isNumeric := i < len(numeric) && numeric[i]
		switch typed := value.(type) {
		case []byte:
			normalized[i] = decimalOrString(string(typed), isNumeric)
		case string:
			normalized[i] = decimalOrString(typed, isNumeric)
		case float64Valuer:
			normalized[i] = typed.Float64()
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

// decimalOrString keeps the text when it does not fit a finite float64.
func decimalOrString(text string, numeric bool) any {
	if !numeric {
		return text
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return text
	}
	return f
}
