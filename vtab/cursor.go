package vtab

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// Cursor iterates the rows buffered by its table's most recent Filter.
type Cursor struct {
	table  *Table
	row    int
	closed bool
}

func (c *Cursor) check() error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.table.released {
		return ErrReleased
	}
	return nil
}

// Filter binds args to the constraints accepted by the last BestIndex, runs the
// plugin's Generate once and buffers the produced rows. args[i] is the literal of
// the constraint at position i+1. Any previous buffer contents are discarded, so
// calling Filter again with the same arguments yields the same rows.
//
// A Generate error is returned as is and leaves the buffer empty.
func (c *Cursor) Filter(ctx context.Context, idxNum int, idxStr string, args ...any) error {
	if err := c.check(); err != nil {
		return err
	}
	t := c.table

	c.row = 0
	t.content.reset(t.schema)

	if len(args) != t.constraints.Len() {
		return fmt.Errorf("%w: got %d, want %d", ErrArgumentCount, len(args), t.constraints.Len())
	}
	for i, arg := range args {
		var expr string
		if arg != nil {
			s, err := cast.ToStringE(arg)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i+1, err)
			}
			expr = s
		}
		if err := t.constraints.Bind(i+1, expr); err != nil {
			return err
		}
	}

	qc := t.constraints.QueryContext(t.schema)
	rows, err := t.plugin.Generate(ctx, qc)
	if err != nil {
		t.logger.Error("Generate failed", "idx_num", idxNum, "error", err)
		return err
	}
	for _, r := range rows {
		t.content.append(t.schema, r)
	}

	t.logger.Debug("Filter",
		"idx_num", idxNum,
		"idx_str", idxStr,
		"args", len(args),
		"rows", t.content.n,
	)
	return nil
}

// Next advances to the following row. It does not check bounds; callers test Eof.
func (c *Cursor) Next() error {
	if err := c.check(); err != nil {
		return err
	}
	c.row++
	return nil
}

// Eof reports whether the cursor has moved past the last buffered row.
// A closed cursor or released table is always at Eof.
func (c *Cursor) Eof() bool {
	if c.check() != nil {
		return true
	}
	return c.row >= c.table.content.n
}

// Column returns the value of column col in the current row, coerced to the
// column's declared type. A value that fails numeric coercion is returned as
// Sentinel and reported through the table's logger.
func (c *Cursor) Column(col int) (Value, error) {
	if err := c.check(); err != nil {
		return Value{}, err
	}
	t := c.table
	if col < 0 || col >= len(t.schema) {
		return Value{}, &BoundsError{Kind: "column", Index: col, Limit: len(t.schema)}
	}
	if c.row < 0 || c.row >= t.content.n {
		return Value{}, &BoundsError{Kind: "row", Index: c.row, Limit: t.content.n}
	}
	column := t.schema[col]
	return t.coerce(column, t.content.columns[column.Name][c.row]), nil
}

// Rowid returns the 0-based position of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return int64(c.row), nil
}

// Close releases the cursor. The table's buffer is kept for later cursors.
func (c *Cursor) Close() error {
	if c.closed {
		return ErrCursorClosed
	}
	c.closed = true
	return nil
}
