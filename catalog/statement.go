package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/airport-vtable/table"
)

// ErrMalformedStatement is returned when a schema declaration cannot be parsed.
var ErrMalformedStatement = errors.New("malformed table declaration")

// ParseStatement parses a declaration of the form
//
//	CREATE TABLE name(col TYPE, col TYPE, ...)
//
// where TYPE is TEXT, INTEGER or BIGINT. Keywords and types are case-insensitive.
func ParseStatement(stmt string) (string, table.Schema, error) {
	s := strings.TrimSpace(stmt)
	const prefix = "CREATE TABLE"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", nil, fmt.Errorf("%w: missing %s", ErrMalformedStatement, prefix)
	}
	s = strings.TrimSpace(s[len(prefix):])

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("%w: missing column list", ErrMalformedStatement)
	}
	name := strings.TrimSpace(s[:open])
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return "", nil, fmt.Errorf("%w: bad table name %q", ErrMalformedStatement, name)
	}

	body := s[open+1 : len(s)-1]
	var schema table.Schema
	for i, def := range strings.Split(body, ",") {
		fields := strings.Fields(def)
		if len(fields) != 2 {
			return "", nil, fmt.Errorf("%w: column %d: %q", ErrMalformedStatement, i, strings.TrimSpace(def))
		}
		typ, err := table.ParseColumnType(fields[1])
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", fields[0], err)
		}
		schema = append(schema, table.Column{Name: fields[0], Type: typ})
	}
	if err := schema.Validate(); err != nil {
		return "", nil, fmt.Errorf("table %s: %w", name, err)
	}
	return name, schema, nil
}

// ArrowType returns the Arrow type a column is served as.
func ArrowType(t table.ColumnType) arrow.DataType {
	switch t {
	case table.Integer:
		return arrow.PrimitiveTypes.Int32
	case table.BigInt:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema builds the Arrow schema for a declared column list. All fields are
// nullable since unprojected columns are sent as nulls. With rowid set, a trailing
// int64 field flagged with is_rowid metadata carries the cursor rowid.
func ArrowSchema(schema table.Schema, rowid bool) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(schema)+1)
	for _, col := range schema {
		fields = append(fields, arrow.Field{
			Name:     col.Name,
			Type:     ArrowType(col.Type),
			Nullable: true,
		})
	}
	if rowid {
		fields = append(fields, arrow.Field{
			Name:     RowIDColumn,
			Type:     arrow.PrimitiveTypes.Int64,
			Nullable: false,
			Metadata: arrow.NewMetadata([]string{"is_rowid"}, []string{"true"}),
		})
	}
	return arrow.NewSchema(fields, nil)
}
