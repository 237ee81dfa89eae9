package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-vtable/vtab"
)

var (
	// ErrTableExists is returned when attaching a name that is already attached.
	ErrTableExists = errors.New("table already attached")
	// ErrTableNotFound is returned when detaching a name that is not attached.
	ErrTableNotFound = errors.New("table not attached")
)

// AttacherConfig configures an Attacher.
type AttacherConfig struct {
	// Schema is the schema name tables are served under. Defaults to "main".
	Schema string

	// Comment is optional schema documentation.
	Comment string

	// RowID adds a rowid pseudo-column to every table whose columns do not already
	// include one.
	RowID bool

	// Allocator for record batches. Defaults to memory.DefaultAllocator.
	Allocator memory.Allocator

	// Logger for scan diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Attacher is a catalog schema that tables are attached to at runtime.
// It implements the registry host contract.
type Attacher struct {
	name      string
	comment   string
	rowid     bool
	allocator memory.Allocator
	logger    *slog.Logger

	mu     sync.RWMutex
	tables map[string]*VirtualTable
}

// NewAttacher creates an empty schema.
func NewAttacher(cfg AttacherConfig) *Attacher {
	if cfg.Schema == "" {
		cfg.Schema = "main"
	}
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Attacher{
		name:      cfg.Schema,
		comment:   cfg.Comment,
		rowid:     cfg.RowID,
		allocator: cfg.Allocator,
		logger:    cfg.Logger,
		tables:    make(map[string]*VirtualTable),
	}
}

// Attach creates the module's owner adapter, declaring its schema, and makes the
// table queryable under name.
func (a *Attacher) Attach(name string, m *vtab.Module) error {
	if m == nil {
		return fmt.Errorf("table %s: module is nil", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.tables[name]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	vt := &VirtualTable{
		module:    m,
		allocator: a.allocator,
		logger:    a.logger.With("schema", a.name, "table", name),
	}
	owner, err := m.Create(func(stmt string) error {
		declared, columns, err := ParseStatement(stmt)
		if err != nil {
			return err
		}
		if declared != name {
			return fmt.Errorf("declared table %q does not match %q", declared, name)
		}
		vt.name = declared
		vt.statement = stmt
		vt.columns = columns
		vt.rowid = a.rowid && columns.Index(RowIDColumn) < 0
		vt.schema = ArrowSchema(columns, vt.rowid)
		return nil
	})
	if err != nil {
		return err
	}
	vt.owner = owner
	a.tables[name] = vt

	a.logger.Debug("Table attached", "schema", a.name, "table", name, "columns", len(vt.columns))
	return nil
}

// Detach destroys the named table's owner adapter and removes it from the schema.
// Other tables are unaffected.
func (a *Attacher) Detach(name string) error {
	a.mu.Lock()
	vt, ok := a.tables[name]
	delete(a.tables, name)
	a.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err := vt.owner.Destroy(); err != nil {
		return fmt.Errorf("table %s: %w", name, err)
	}
	a.logger.Debug("Table detached", "schema", a.name, "table", name)
	return nil
}

// Name implements Schema interface.
func (a *Attacher) Name() string {
	return a.name
}

// Comment implements Schema interface.
func (a *Attacher) Comment() string {
	return a.comment
}

// Tables implements Schema interface.
func (a *Attacher) Tables(ctx context.Context) ([]Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.tables))
	for name := range a.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Table, len(names))
	for i, name := range names {
		result[i] = a.tables[name]
	}
	return result, nil
}

// Table implements Schema interface.
func (a *Attacher) Table(ctx context.Context, name string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	vt, ok := a.tables[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return vt, nil
}
