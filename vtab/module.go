// Package vtab adapts table plugins to a query engine's virtual table protocol.
//
// The engine drives each adapter through a fixed lifecycle:
//
//	Create/Connect -> BestIndex -> Open -> Filter -> (Eof, Column, Rowid, Next)* -> Close -> Destroy/Disconnect
//
// BestIndex records the predicate terms that can be pushed down and assigns each a
// 1-based argument position. Filter receives the literals in that order, hands the
// resulting table.QueryContext to the plugin and buffers every generated row.
// Column then coerces the buffered strings into the declared column types.
//
// The adapter performs no locking. An engine that iterates the same table from
// several plan nodes at once must Connect one Table per node.
package vtab

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hugr-lab/airport-vtable/table"
)

// DeclareFunc hands a schema declaration statement to the engine.
type DeclareFunc func(statement string) error

// Module binds one plugin instance to the adapter machinery.
// The plugin is shared by every Table the module creates.
type Module struct {
	plugin    table.Plugin
	schema    table.Schema
	statement string
	logger    *slog.Logger
}

// NewModule validates the plugin's name and schema and returns a module for it.
// If logger is nil, slog.Default() is used.
func NewModule(p table.Plugin, logger *slog.Logger) (*Module, error) {
	if p == nil {
		return nil, fmt.Errorf("plugin is nil")
	}
	if p.Name() == "" {
		return nil, fmt.Errorf("plugin name: %w", table.ErrEmptyName)
	}
	schema := p.Columns()
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("table %s: %w", p.Name(), err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{
		plugin:    p,
		schema:    schema,
		statement: table.Statement(p.Name(), schema),
		logger:    logger.With("table", p.Name()),
	}, nil
}

// Name returns the plugin's table name.
func (m *Module) Name() string { return m.plugin.Name() }

// Schema returns the plugin's column schema.
func (m *Module) Schema() table.Schema { return m.schema }

// Statement returns the schema declaration statement.
func (m *Module) Statement() string { return m.statement }

// Create allocates a new adapter in response to the table being attached and
// declares its schema through declare.
func (m *Module) Create(declare DeclareFunc) (*Table, error) {
	return m.open("create", declare)
}

// Connect allocates a new adapter for an already attached table.
// Engines call it once per plan node that references the table.
func (m *Module) Connect(declare DeclareFunc) (*Table, error) {
	return m.open("connect", declare)
}

func (m *Module) open(op string, declare DeclareFunc) (*Table, error) {
	t := &Table{
		id:      uuid.NewString(),
		name:    m.plugin.Name(),
		plugin:  m.plugin,
		schema:  m.schema,
		content: newContent(m.schema),
	}
	t.logger = m.logger.With("vtab_id", t.id)

	if declare != nil {
		if err := declare(m.statement); err != nil {
			t.release()
			t.logger.Error("Schema declaration rejected", "op", op, "statement", m.statement, "error", err)
			return nil, fmt.Errorf("%w: %s: %v", ErrDeclare, t.name, err)
		}
	}

	t.logger.Debug("Virtual table allocated", "op", op)
	return t, nil
}
