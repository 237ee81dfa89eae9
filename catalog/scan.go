package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-vtable/filter"
	"github.com/hugr-lab/airport-vtable/internal/pushdown"
	"github.com/hugr-lab/airport-vtable/internal/recovery"
	"github.com/hugr-lab/airport-vtable/table"
	"github.com/hugr-lab/airport-vtable/vtab"
)

// VirtualTable serves one attached module. The owner adapter created at attach
// time lives until Detach; each Scan connects its own adapter so concurrent scans
// never share a row buffer.
type VirtualTable struct {
	name      string
	statement string
	columns   table.Schema
	schema    *arrow.Schema
	rowid     bool

	module    *vtab.Module
	owner     *vtab.Table
	allocator memory.Allocator
	logger    *slog.Logger
}

// Name implements Table interface.
func (vt *VirtualTable) Name() string {
	return vt.name
}

// Comment implements Table interface. It returns the schema declaration.
func (vt *VirtualTable) Comment() string {
	return vt.statement
}

// Columns returns the declared columns.
func (vt *VirtualTable) Columns() table.Schema {
	return vt.columns
}

// ArrowSchema implements Table interface.
func (vt *VirtualTable) ArrowSchema(columns []string) *arrow.Schema {
	return ProjectSchema(vt.schema, columns)
}

// declare accepts only the statement seen at attach time.
func (vt *VirtualTable) declare(stmt string) error {
	if stmt != vt.statement {
		return fmt.Errorf("declaration changed since attach: %q", stmt)
	}
	return nil
}

// Scan implements Table interface.
//
// The filter JSON is translated into index constraints and negotiated with
// BestIndex. An unparsable filter is logged and the scan runs unfiltered; the
// engine re-applies every predicate to the returned rows.
func (vt *VirtualTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	fp, err := filter.Parse(opts.Filter)
	if err != nil {
		vt.logger.Warn("Ignoring filter pushdown", "error", err)
		fp = nil
	}

	t, err := vt.module.Connect(vt.declare)
	if err != nil {
		return nil, err
	}
	defer recovery.Recover(vt.logger, "Disconnect "+vt.name, func() { _ = t.Disconnect() })

	projected, colUsed := vt.projection(opts.Columns)
	in, literals := pushdown.Input(pushdown.Plan(fp, vt.columns), colUsed)

	out, err := t.BestIndex(in)
	if err != nil {
		return nil, err
	}
	args, err := out.Args(literals)
	if err != nil {
		return nil, err
	}

	cur, err := t.Open()
	if err != nil {
		return nil, err
	}
	defer recovery.Recover(vt.logger, "Close "+vt.name, func() { _ = cur.Close() })

	err = recovery.RecoverToError(vt.logger, "Filter "+vt.name, func() error {
		return cur.Filter(ctx, out.IndexNumber, out.IndexString, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", vt.name, err)
	}

	records, err := vt.collect(ctx, cur, projected, opts.Limit, opts.batchSize())
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", vt.name, err)
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	vt.logger.Debug("Scan",
		"constraints", len(in.Constraints),
		"pushed", out.IndexNumber,
		"rows", t.RowCount(),
		"batches", len(records),
		"coercion_failures", t.CoercionFailures(),
	)
	return array.NewRecordReader(vt.schema, records)
}

// projection marks the columns to read and builds the matching column-used mask.
func (vt *VirtualTable) projection(columns []string) ([]bool, uint64) {
	projected := make([]bool, len(vt.columns))
	if len(columns) == 0 {
		for i := range projected {
			projected[i] = true
		}
	} else {
		for _, name := range columns {
			if i := vt.columns.Index(name); i >= 0 {
				projected[i] = true
			}
		}
	}

	var mask uint64
	for i, ok := range projected {
		if !ok {
			continue
		}
		if i >= 63 {
			mask |= 1 << 63
			continue
		}
		mask |= 1 << uint(i)
	}
	return projected, mask
}

// collect drains the cursor into record batches of at most batchSize rows.
// Unprojected columns are appended as nulls and never read from the cursor.
func (vt *VirtualTable) collect(ctx context.Context, cur *vtab.Cursor, projected []bool, limit int64, batchSize int) (records []arrow.Record, err error) {
	b := array.NewRecordBuilder(vt.allocator, vt.schema)
	defer b.Release()

	defer func() {
		if err != nil {
			for _, rec := range records {
				rec.Release()
			}
			records = nil
		}
	}()

	var total int64
	pending := 0
	for !cur.Eof() {
		if limit > 0 && total >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return records, err
		}

		for i, col := range vt.columns {
			field := b.Field(i)
			if !projected[i] {
				field.AppendNull()
				continue
			}
			v, err := cur.Column(i)
			if err != nil {
				return records, err
			}
			switch col.Type {
			case table.Integer:
				field.(*array.Int32Builder).Append(int32(v.Int))
			case table.BigInt:
				field.(*array.Int64Builder).Append(v.Int)
			default:
				field.(*array.StringBuilder).Append(v.Text)
			}
		}
		if vt.rowid {
			id, err := cur.Rowid()
			if err != nil {
				return records, err
			}
			b.Field(len(vt.columns)).(*array.Int64Builder).Append(id)
		}

		total++
		pending++
		if pending == batchSize {
			records = append(records, b.NewRecord())
			pending = 0
		}
		if err := cur.Next(); err != nil {
			return records, err
		}
	}

	if pending > 0 || len(records) == 0 {
		records = append(records, b.NewRecord())
	}
	return records, nil
}
