package filter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// LogicalTypeID identifies a DuckDB data type.
type LogicalTypeID string

const (
	TypeIDSQLNull   LogicalTypeID = "SQLNULL"
	TypeIDBoolean   LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt   LogicalTypeID = "TINYINT"
	TypeIDSmallInt  LogicalTypeID = "SMALLINT"
	TypeIDInteger   LogicalTypeID = "INTEGER"
	TypeIDBigInt    LogicalTypeID = "BIGINT"
	TypeIDUTinyInt  LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt LogicalTypeID = "USMALLINT"
	TypeIDUInteger  LogicalTypeID = "UINTEGER"
	TypeIDUBigInt   LogicalTypeID = "UBIGINT"
	TypeIDFloat     LogicalTypeID = "FLOAT"
	TypeIDDouble    LogicalTypeID = "DOUBLE"
	TypeIDDecimal   LogicalTypeID = "DECIMAL"
	TypeIDVarchar   LogicalTypeID = "VARCHAR"
	TypeIDChar      LogicalTypeID = "CHAR"
	TypeIDBlob      LogicalTypeID = "BLOB"
	TypeIDUUID      LogicalTypeID = "UUID"
	TypeIDList      LogicalTypeID = "LIST"
)

var typeIDAliases = map[LogicalTypeID]LogicalTypeID{
	"INT":    TypeIDInteger,
	"INT4":   TypeIDInteger,
	"INT8":   TypeIDBigInt,
	"INT2":   TypeIDSmallInt,
	"INT1":   TypeIDTinyInt,
	"UINT8":  TypeIDUBigInt,
	"UINT4":  TypeIDUInteger,
	"UINT2":  TypeIDUSmallInt,
	"UINT1":  TypeIDUTinyInt,
	"FLOAT4": TypeIDFloat,
	"FLOAT8": TypeIDDouble,
	"REAL":   TypeIDFloat,
	"STRING": TypeIDVarchar,
	"TEXT":   TypeIDVarchar,
	"BOOL":   TypeIDBoolean,
}

// Normalize resolves DuckDB type aliases to their canonical id.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	if mapped, ok := typeIDAliases[t]; ok {
		return mapped
	}
	return t
}

// IsInteger reports whether t is a signed or unsigned integer type up to 64 bits.
func (t LogicalTypeID) IsInteger() bool {
	switch t {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt:
		return true
	}
	return false
}

// IsString reports whether t is a character type.
func (t LogicalTypeID) IsString() bool {
	return t == TypeIDVarchar || t == TypeIDChar
}

// LogicalType is a DuckDB logical type. Extra type info is not retained.
type LogicalType struct {
	ID LogicalTypeID `json:"id"`
}

// Value is a typed constant.
//
// Data holds bool, int64, uint64, float64 or string for the scalar types this
// package understands, []Value for lists, and the raw JSON text for anything else.
type Value struct {
	Type   LogicalType
	IsNull bool
	Data   any
}

// base64String is how DuckDB sends strings that are not valid UTF-8.
type base64String struct {
	Base64 string `json:"base64"`
}

func parseLogicalType(data json.RawMessage) (LogicalType, error) {
	if len(data) == 0 || string(data) == "null" {
		return LogicalType{}, nil
	}
	var raw struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogicalType{}, fmt.Errorf("invalid logical type: %w", err)
	}
	return LogicalType{ID: LogicalTypeID(raw.ID).Normalize()}, nil
}

func parseValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 || string(data) == "null" {
		return Value{IsNull: true}, nil
	}

	var raw struct {
		Type   json.RawMessage `json:"type"`
		IsNull bool            `json:"is_null"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("invalid value: %w", err)
	}

	lt, err := parseLogicalType(raw.Type)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value type: %w", err)
	}

	v := Value{Type: lt, IsNull: raw.IsNull}
	if raw.IsNull || len(raw.Value) == 0 || string(raw.Value) == "null" {
		v.IsNull = true
		return v, nil
	}

	v.Data, err = parseValueData(raw.Value, lt)
	if err != nil {
		return Value{}, fmt.Errorf("invalid %s value: %w", lt.ID, err)
	}
	return v, nil
}

func parseValueData(data json.RawMessage, lt LogicalType) (any, error) {
	switch {
	case lt.ID == TypeIDBoolean:
		var v bool
		err := json.Unmarshal(data, &v)
		return v, err

	case lt.ID.IsInteger() && lt.ID != TypeIDUBigInt:
		var v int64
		err := json.Unmarshal(data, &v)
		return v, err

	case lt.ID == TypeIDUBigInt:
		var v uint64
		err := json.Unmarshal(data, &v)
		return v, err

	case lt.ID == TypeIDFloat || lt.ID == TypeIDDouble:
		var v float64
		err := json.Unmarshal(data, &v)
		return v, err

	case lt.ID == TypeIDDecimal:
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s, nil
		}
		var f float64
		err := json.Unmarshal(data, &f)
		return f, err

	case lt.ID.IsString() || lt.ID == TypeIDUUID:
		var b64 base64String
		if err := json.Unmarshal(data, &b64); err == nil && b64.Base64 != "" {
			decoded, err := base64.StdEncoding.DecodeString(b64.Base64)
			if err != nil {
				return nil, fmt.Errorf("invalid base64: %w", err)
			}
			return string(decoded), nil
		}
		var s string
		err := json.Unmarshal(data, &s)
		return s, err

	case lt.ID == TypeIDList:
		var raw struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		children := make([]Value, 0, len(raw.Children))
		for _, child := range raw.Children {
			v, err := parseValue(child)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		return children, nil

	default:
		return string(data), nil
	}
}
