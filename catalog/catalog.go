// Package catalog exposes attached virtual tables as a browsable catalog of
// schemas and tables for the Flight layer.
//
// An Attacher is both a catalog schema and the registry host: the registry hands it
// one vtab.Module per plugin and it wraps each in a VirtualTable whose Scan drives
// the adapter lifecycle and returns Arrow record batches.
//
// All interfaces are goroutine-safe and support context-based cancellation.
package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Catalog represents the top-level metadata container.
// All methods MUST be goroutine-safe.
type Catalog interface {
	// Schemas returns all schemas visible in this catalog, in declaration order.
	// The first schema is reported as the default one.
	Schemas(ctx context.Context) ([]Schema, error)

	// Schema returns a specific schema by name.
	// Returns (nil, nil) if schema doesn't exist (not an error).
	Schema(ctx context.Context, name string) (Schema, error)
}

// Schema represents a database schema containing tables.
// Implementations MUST be goroutine-safe.
type Schema interface {
	// Name returns the schema name (e.g., "main").
	Name() string

	// Comment returns optional schema documentation.
	Comment() string

	// Tables returns all tables in this schema sorted by name.
	// Returns empty slice (not nil) if no tables available.
	Tables(ctx context.Context) ([]Table, error)

	// Table returns a specific table by name.
	// Returns (nil, nil) if table doesn't exist (not an error).
	Table(ctx context.Context, name string) (Table, error)
}

// Table represents a queryable read-only table with a fixed schema.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name.
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the table schema. If columns is non-empty the result is
	// projected to those columns in the given order.
	ArrowSchema(columns []string) *arrow.Schema

	// Scan executes a scan and returns a RecordReader whose schema equals
	// ArrowSchema(nil). Columns outside opts.Columns may be filled with nulls.
	// Caller MUST call reader.Release() to free memory.
	Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
}
