package catalog

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// RowIDColumn is the name of the pseudo-column carrying the cursor rowid.
const RowIDColumn = "rowid"

// ProjectSchema returns a projected schema containing only the specified columns.
// If columns is nil or empty, returns the full schema unchanged.
// Column order in the returned schema matches the order in columns slice.
// Original schema metadata is preserved in the projected schema.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 {
		return schema
	}

	colIndex := make(map[string]int, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		colIndex[schema.Field(i).Name] = i
	}

	fields := make([]arrow.Field, 0, len(columns))
	for _, col := range columns {
		if idx, ok := colIndex[col]; ok {
			fields = append(fields, schema.Field(idx))
		}
	}
	if len(fields) == 0 {
		return schema
	}

	meta := schema.Metadata()
	return arrow.NewSchema(fields, &meta)
}

// FindRowIDColumn returns the index of the rowid column in the schema.
// Returns -1 if no rowid column is found or schema is nil.
//
// Rowid column is identified by:
//   - Column name "rowid" (case-sensitive), or
//   - Metadata key "is_rowid" with non-empty value
func FindRowIDColumn(schema *arrow.Schema) int {
	if schema == nil {
		return -1
	}

	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		if field.Name == RowIDColumn {
			return i
		}
		if md := field.Metadata; md.Len() > 0 {
			if idx := md.FindKey("is_rowid"); idx >= 0 && md.Values()[idx] != "" {
				return i
			}
		}
	}
	return -1
}
