package rowcodec

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratadmin/internal/app/store/schema"
	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/google/uuid"
)

// AutoManaged lists the columns never accepted from insert payloads.
var AutoManaged = []string{"id", "createdAt", "updatedAt"}

func isAutoManaged(name string) bool {
	for _, c := range AutoManaged {
		if c == name {
			return true
		}
	}
	return false
}

// isEmpty reports whether raw counts as "no value": null or the empty string.
func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && s == ""
}

// EncodeInsert turns request values into the row to insert. Columns come out
// in declaration order.
//
// Auto-managed columns and columns missing from cols are dropped. An empty
// value for a NOT NULL column is dropped (the database default applies); for
// a nullable column it becomes NULL. Everything else is coerced by Coerce.
func EncodeInsert(cols schema.Columns, values map[string]any) (Row, error) {
	var row Row
	for _, col := range cols {
		if isAutoManaged(col.Name) {
			continue
		}
		raw, present := values[col.Name]
		if !present {
			continue
		}
		v, keep := encodeField(col, raw)
		if keep {
			row = append(row, Field{Column: col.Name, Value: v})
		}
	}
	if len(row) == 0 {
		return nil, apperr.Invalid("No valid columns to insert")
	}
	return row, nil
}

// EncodeUpdate turns request values into the SET list of an update. It applies
// the insert rules except that only the key columns are excluded; timestamps
// may be edited like any other column.
func EncodeUpdate(cols schema.Columns, values map[string]any, keyColumn string) (Row, error) {
	var row Row
	for _, col := range cols {
		if col.Name == keyColumn {
			continue
		}
		raw, present := values[col.Name]
		if !present {
			continue
		}
		v, keep := encodeField(col, raw)
		if keep {
			row = append(row, Field{Column: col.Name, Value: v})
		}
	}
	if len(row) == 0 {
		return nil, apperr.Invalid("No valid columns to update")
	}
	return row, nil
}

func encodeField(col schema.Column, raw any) (Value, bool) {
	if isEmpty(raw) {
		if !col.Nullable {
			return Value{}, false
		}
		return Null(), true
	}
	return Coerce(col.SQLType, raw), true
}

// Coerce converts raw (as decoded from JSON, or a time.Time) to the value
// bound for a column of the given information_schema data type.
func Coerce(sqlType string, raw any) Value {
	if isEmpty(raw) {
		return Null()
	}
	switch sqlType {
	case "integer", "bigint", "smallint":
		if i, ok := parseInt(raw); ok {
			return Int(i)
		}
		return Null()
	case "numeric", "decimal", "real", "double precision":
		if f, ok := parseFloat(raw); ok {
			return Float(f)
		}
		return Null()
	case "boolean":
		return Bool(parseBool(raw))
	case "timestamp without time zone", "timestamp with time zone", "date":
		if t, ok := parseTime(raw); ok {
			return Timestamp(t)
		}
		return Null()
	}
	return Text(stringify(raw))
}

// number extracts a float from JSON-ish numeric inputs.
func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// parseInt reads a leading integer the way a lenient form parser does:
// "42px" is 42, "3.9" is 3, "abc" is not a number.
func parseInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return truncInt(f)
	case bool:
		return 0, false
	case string:
		m := intPrefix.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0, false
		}
		i, err := strconv.ParseInt(m, 10, 64)
		return i, err == nil
	}
	if f, ok := number(raw); ok {
		return truncInt(f)
	}
	return parseInt(stringify(raw))
}

// twoTo63 bounds the floats that truncate into an int64.
const twoTo63 = 1 << 63

// truncInt drops the fraction of f. NaN, infinities and values outside the
// int64 range do not parse.
func truncInt(f float64) (int64, bool) {
	if math.IsNaN(f) || f < -twoTo63 || f >= twoTo63 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// parseFloat reads a leading decimal number: "12.5kg" is 12.5.
func parseFloat(raw any) (float64, bool) {
	if f, ok := number(raw); ok {
		return f, !math.IsNaN(f)
	}
	s, ok := raw.(string)
	if !ok {
		if _, isBool := raw.(bool); isBool {
			return 0, false
		}
		s = stringify(raw)
	}
	s = strings.TrimSpace(s)
	switch strings.TrimLeft(s, "+-") {
	case "Infinity":
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

// parseBool is true only for true, "true", 1 and "1".
func parseBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	}
	if f, ok := number(raw); ok {
		return f == 1
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// parseTime accepts time values, ISO-like strings and epoch milliseconds.
func parseTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if f, ok := number(raw); ok {
		if ms, ok := truncInt(f); ok {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(b)
}

// Decode wraps a stored value (as returned by pgx rows.Values) without
// changing it. Common Go types get their own tag; uuids render as strings;
// anything else passes through as raw.
func Decode(stored any) Value {
	switch v := stored.(type) {
	case nil:
		return Null()
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	case string:
		return Text(v)
	case time.Time:
		return Timestamp(v)
	case [16]byte:
		return Text(uuid.UUID(v).String())
	}
	return Raw(stored)
}

// DecodeRow builds a Row from column names and stored values.
func DecodeRow(columns []string, stored []any) Row {
	row := make(Row, len(columns))
	for i, c := range columns {
		var v any
		if i < len(stored) {
			v = stored[i]
		}
		row[i] = Field{Column: c, Value: Decode(v)}
	}
	return row
}
