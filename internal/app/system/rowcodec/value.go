// Package rowcodec converts between untyped request values and typed SQL
// parameters for tables whose shape is only known at run time.
//
// A Row is an ordered list of column/value pairs. Each value is a small tagged
// union; the live column list from the schema introspector decides which tag a
// raw input becomes.
package rowcodec

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Kind tags a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
	KindTimestamp
	KindRaw // stored value with no dedicated tag, rendered by its own JSON encoding
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindRaw:
		return "raw"
	}
	return "unknown"
}

// Value is one typed cell.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	t    time.Time
	raw  any
}

func Null() Value                 { return Value{kind: KindNull} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Text(s string) Value         { return Value{kind: KindText, s: s} }
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }
func Raw(v any) Value             { return Value{kind: KindRaw, raw: v} }

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Arg returns v as a query parameter for pgx.
func (v Value) Arg() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindText:
		return v.s
	case KindTimestamp:
		return v.t
	case KindRaw:
		return v.raw
	}
	return nil
}

// MarshalJSON renders the value for API responses.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		// JSON has no NaN or Infinity
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindText:
		return json.Marshal(v.s)
	case KindTimestamp:
		return json.Marshal(v.t)
	case KindRaw:
		return json.Marshal(v.raw)
	}
	return []byte("null"), nil
}

// Field is one column of a Row.
type Field struct {
	Column string
	Value  Value
}

// Row is an ordered column -> value mapping.
type Row []Field

// Columns returns the column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Column
	}
	return out
}

// Args returns the bind parameters in column order.
func (r Row) Args() []any {
	out := make([]any, len(r))
	for i, f := range r {
		out[i] = f.Value.Arg()
	}
	return out
}

// Get returns the value of column name.
func (r Row) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Column == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON renders the row as a JSON object keeping column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
