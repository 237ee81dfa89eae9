package vtab

import (
	"strconv"

	"github.com/hugr-lab/airport-vtable/table"
)

// Sentinel is substituted for numeric values that fail to parse.
const Sentinel = table.Sentinel

// Value is a typed column value as returned to the engine.
type Value struct {
	Type table.ColumnType
	Text string
	Int  int64
}

// Any returns the value as string, int32 or int64 according to its type.
func (v Value) Any() any {
	switch v.Type {
	case table.Integer:
		return int32(v.Int)
	case table.BigInt:
		return v.Int
	default:
		return v.Text
	}
}

// Coerce converts a generated string into the column's declared type.
// Numeric parsing is strict base-10. On failure it returns the Sentinel value
// together with a *CoercionError; callers are expected to continue with the value.
func Coerce(col table.Column, raw string) (Value, error) {
	switch col.Type {
	case table.Integer:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Value{Type: table.Integer, Int: Sentinel},
				&CoercionError{Column: col.Name, Type: col.Type.String(), Value: raw, Err: err}
		}
		return Value{Type: table.Integer, Int: n}, nil
	case table.BigInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{Type: table.BigInt, Int: Sentinel},
				&CoercionError{Column: col.Name, Type: col.Type.String(), Value: raw, Err: err}
		}
		return Value{Type: table.BigInt, Int: n}, nil
	default:
		return Value{Type: table.Text, Text: raw}, nil
	}
}
