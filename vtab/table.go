package vtab

import (
	"errors"
	"log/slog"

	"github.com/hugr-lab/airport-vtable/table"
)

// estimated cost of a full scan; each pushed-down constraint divides it.
const fullScanCost = 1e6

// content is the column-major row buffer filled by Filter.
type content struct {
	n       int
	columns map[string][]string
}

func newContent(schema table.Schema) *content {
	c := &content{columns: make(map[string][]string, len(schema))}
	for _, col := range schema {
		c.columns[col.Name] = nil
	}
	return c
}

func (c *content) reset(schema table.Schema) {
	c.n = 0
	for _, col := range schema {
		c.columns[col.Name] = c.columns[col.Name][:0]
	}
}

func (c *content) append(schema table.Schema, row table.Row) {
	for _, col := range schema {
		c.columns[col.Name] = append(c.columns[col.Name], row[col.Name])
	}
	c.n++
}

// Table is one adapter instance: the plugin, its row buffer and the constraints
// negotiated for the current plan. It is not safe for concurrent use.
type Table struct {
	id          string
	name        string
	plugin      table.Plugin
	schema      table.Schema
	content     *content
	constraints table.ConstraintSet
	logger      *slog.Logger

	coercionFailures int
	released         bool
}

// ID returns the adapter instance identifier used in logs.
func (t *Table) ID() string { return t.id }

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the declared columns.
func (t *Table) Schema() table.Schema { return t.schema }

// RowCount returns the number of rows buffered by the last Filter.
func (t *Table) RowCount() int {
	if t.released {
		return 0
	}
	return t.content.n
}

// CoercionFailures returns how many column reads fell back to the sentinel value.
func (t *Table) CoercionFailures() int { return t.coercionFailures }

// BestIndex negotiates which offered constraints are pushed down. Every usable
// constraint on a schema column is accepted, in offer order, and assigned the next
// argument position starting at 1. Each call starts a new negotiation.
func (t *Table) BestIndex(in *IndexInfoInput) (*IndexInfoOutput, error) {
	if t.released {
		return nil, ErrReleased
	}

	t.constraints.Reset()
	out := &IndexInfoOutput{
		ConstraintUsage: make([]ConstraintUsage, len(in.Constraints)),
	}
	for i, ic := range in.Constraints {
		if !ic.Usable {
			continue
		}
		if ic.Column < 0 || ic.Column >= len(t.schema) {
			continue
		}
		out.ConstraintUsage[i].ArgvIndex = t.constraints.Propose(t.schema[ic.Column].Name, ic.Op)
	}

	accepted := t.constraints.Len()
	out.IndexNumber = accepted
	out.EstimatedCost = fullScanCost / float64(accepted+1)

	t.logger.Debug("BestIndex",
		"offered", len(in.Constraints),
		"accepted", accepted,
	)
	return out, nil
}

// Open creates a cursor over the table's buffer.
func (t *Table) Open() (*Cursor, error) {
	if t.released {
		return nil, ErrReleased
	}
	return &Cursor{table: t}, nil
}

// Disconnect releases this adapter instance.
func (t *Table) Disconnect() error {
	if t.released {
		return ErrReleased
	}
	t.release()
	t.logger.Debug("Virtual table disconnected")
	return nil
}

// Destroy releases this adapter instance when the table is detached.
func (t *Table) Destroy() error {
	if t.released {
		return ErrReleased
	}
	t.release()
	t.logger.Debug("Virtual table destroyed")
	return nil
}

func (t *Table) release() {
	t.released = true
	t.content = nil
	t.constraints.Reset()
}

// coerce converts one buffered value, logging and counting fallbacks.
func (t *Table) coerce(col table.Column, raw string) Value {
	v, err := Coerce(col, raw)
	if err != nil {
		var ce *CoercionError
		if errors.As(err, &ce) {
			t.coercionFailures++
			t.logger.Warn("Error casting column value",
				"column", ce.Column,
				"value", ce.Value,
				"type", ce.Type,
			)
		}
	}
	return v
}
