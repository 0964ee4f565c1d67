package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/querybridge/querybridge/internal/query"
)

// row reads loosely typed driver values. PostgreSQL and DuckDB disagree on
// integer widths and on whether EXTRACT yields a number or NUMERIC text.
type row struct {
	record query.Record
}

func (r row) value(column string) any {
	value, _ := r.record.Get(column)
	return value
}

func (r row) number(column string) float64 {
	switch v := r.value(column).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (r row) integer(column string) int64 {
	switch v := r.value(column).(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	default:
		return int64(math.Round(r.number(column)))
	}
}

func (r row) text(column string) string {
	switch v := r.value(column).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r row) optionalText(column string) *string {
	if r.value(column) == nil {
		return nil
	}
	value := r.text(column)
	return &value
}

func (r row) timestamp(column string) time.Time {
	switch v := r.value(column).(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", time.DateOnly} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// day formats a DATE column as YYYY-MM-DD.
func (r row) day(column string) string {
	if v, ok := r.value(column).(string); ok && len(v) >= len(time.DateOnly) {
		return v[:len(time.DateOnly)]
	}
	t := r.timestamp(column)
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
