package table

import "context"

// Row is one generated row: column name to string value.
// Columns missing from the map read as empty strings.
type Row map[string]string

// Plugin is a pluggable data source exposed as a table.
// One instance is shared by every adapter attached under its name, so
// implementations MUST NOT keep state between Generate calls.
type Plugin interface {
	// Name returns the table name the plugin is attached under.
	Name() string

	// Columns returns the fixed column schema. MUST return the same schema on every call.
	Columns() Schema

	// Generate materializes the rows for one execution.
	// The query context is a pushdown hint: rows that do not match it may still be
	// returned since the engine re-applies every predicate. Called at most once per
	// execution; the returned slice must be finite.
	Generate(ctx context.Context, qc *QueryContext) ([]Row, error)
}

// GenerateFunc adapts a function to the generation half of Plugin.
type GenerateFunc func(ctx context.Context, qc *QueryContext) ([]Row, error)

// funcPlugin is a Plugin assembled from a name, a schema and a GenerateFunc.
type funcPlugin struct {
	name    string
	columns Schema
	fn      GenerateFunc
}

// NewPlugin builds a Plugin from its parts. Handy for tables whose rows
// come from a closure rather than a dedicated type.
func NewPlugin(name string, columns Schema, fn GenerateFunc) Plugin {
	return &funcPlugin{name: name, columns: columns, fn: fn}
}

func (p *funcPlugin) Name() string { return p.name }

func (p *funcPlugin) Columns() Schema { return p.columns }

func (p *funcPlugin) Generate(ctx context.Context, qc *QueryContext) ([]Row, error) {
	return p.fn(ctx, qc)
}
