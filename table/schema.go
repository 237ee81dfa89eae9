// Package table defines the contract between table plugins and the virtual table adapter.
//
// A plugin declares a fixed, ordered column schema and materializes rows on demand:
//
//	type usersTable struct{}
//
//	func (usersTable) Name() string { return "users" }
//
//	func (usersTable) Columns() table.Schema {
//	    return table.Schema{
//	        {Name: "uid", Type: table.BigInt},
//	        {Name: "username", Type: table.Text},
//	    }
//	}
//
//	func (usersTable) Generate(ctx context.Context, qc *table.QueryContext) ([]table.Row, error) {
//	    ...
//	}
//
// All generated values are strings regardless of the declared column type. The adapter
// coerces them into typed values when the engine reads a column.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is the declared affinity of a column.
type ColumnType int

const (
	// Text columns pass generated values through verbatim.
	Text ColumnType = iota + 1
	// Integer columns hold 32-bit signed integers.
	Integer
	// BigInt columns hold 64-bit signed integers.
	BigInt
)

// String returns the SQL type name used in schema declarations.
func (t ColumnType) String() string {
	switch t {
	case Text:
		return "TEXT"
	case Integer:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Valid reports whether t is one of the declared affinities.
func (t ColumnType) Valid() bool {
	return t == Text || t == Integer || t == BigInt
}

// ParseColumnType maps a declared SQL type name to a ColumnType.
// Matching is case-insensitive.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TEXT":
		return Text, nil
	case "INTEGER":
		return Integer, nil
	case "BIGINT":
		return BigInt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Column is a single named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a table. The order defines both the
// engine-visible schema and the positional column index used by the adapter.
type Schema []Column

var (
	// ErrEmptySchema is returned for a schema without columns.
	ErrEmptySchema = errors.New("schema has no columns")
	// ErrUnknownType is returned for an unsupported column type.
	ErrUnknownType = errors.New("unknown column type")
	// ErrDuplicateColumn is returned when a column name appears twice.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrEmptyName is returned for an empty table or column name.
	ErrEmptyName = errors.New("empty name")
)

// Validate checks that column names are non-empty and unique and that every type is known.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchema
	}
	seen := make(map[string]struct{}, len(s))
	for i, col := range s {
		if col.Name == "" {
			return fmt.Errorf("column %d: %w", i, ErrEmptyName)
		}
		if _, ok := seen[col.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name)
		}
		seen[col.Name] = struct{}{}
		if !col.Type.Valid() {
			return fmt.Errorf("column %s: %w: %s", col.Name, ErrUnknownType, col.Type)
		}
	}
	return nil
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, col := range s {
		names[i] = col.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, col := range s {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Statement renders the schema declaration consumed by the engine's table-creation
// mechanism: CREATE TABLE name(col TYPE, ...).
func Statement(name string, s Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(name)
	b.WriteByte('(')
	for i, col := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.Name)
		b.WriteByte(' ')
		b.WriteString(col.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}
