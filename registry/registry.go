// Package registry holds the table plugins known to the process and attaches them
// to a host engine.
//
// Plugins register before the first attachment, typically from init or main.
// AttachAll seals the registry; later registrations fail with ErrSealed.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/hugr-lab/airport-vtable/table"
	"github.com/hugr-lab/airport-vtable/vtab"
)

var (
	// ErrSealed is returned by Register after the registry has been attached.
	ErrSealed = errors.New("registry sealed")
	// ErrDuplicate is returned when a plugin name is already registered.
	ErrDuplicate = errors.New("table already registered")
	// ErrNilPlugin is returned when registering a nil plugin.
	ErrNilPlugin = errors.New("nil plugin")
)

// Host is the engine side of an attachment. Attach must make the module queryable
// under name; Detach removes it again without touching other tables.
type Host interface {
	Attach(name string, m *vtab.Module) error
	Detach(name string) error
}

// Registry maps table names to plugin instances.
type Registry struct {
	mu      sync.Mutex
	plugins map[string]table.Plugin
	sealed  bool
}

// Default is the process-wide registry used by the package-level functions.
var Default = New()

// New creates an empty registry.
func New() *Registry {
	return &Registry{plugins: make(map[string]table.Plugin)}
}

// Register adds p to the Default registry.
func Register(p table.Plugin) error { return Default.Register(p) }

// Register adds p under p.Name().
func (r *Registry) Register(p table.Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("register: %w", table.ErrEmptyName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register %s: %w", name, ErrSealed)
	}
	if _, ok := r.plugins[name]; ok {
		return fmt.Errorf("register %s: %w", name, ErrDuplicate)
	}
	r.plugins[name] = p
	return nil
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (table.Plugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sealed reports whether AttachAll has been called.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// AttachAll seals the registry and attaches every plugin to host in name order.
// A table that fails to attach is skipped and reported in the returned *AttachError;
// the remaining tables are attached regardless.
// If logger is nil, slog.Default() is used.
func (r *Registry) AttachAll(host Host, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	r.mu.Lock()
	r.sealed = true
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	plugins := make(map[string]table.Plugin, len(r.plugins))
	for name, p := range r.plugins {
		plugins[name] = p
	}
	r.mu.Unlock()
	sort.Strings(names)

	errs := new(multierror.Error)
	errs.ErrorFormat = formatTableErrors
	for _, name := range names {
		m, err := vtab.NewModule(plugins[name], logger)
		if err == nil {
			err = host.Attach(name, m)
		}
		if err != nil {
			logger.Error("Table unavailable", "table", name, "error", err)
			errs = multierror.Append(errs, &TableError{Name: name, Err: err})
			continue
		}
		logger.Debug("Table attached", "table", name, "statement", m.Statement())
	}

	if errs.ErrorOrNil() == nil {
		return nil
	}
	return &AttachError{errs: errs}
}

// AttachAll attaches the Default registry to host.
func AttachAll(host Host, logger *slog.Logger) error { return Default.AttachAll(host, logger) }

// TableError is the attachment failure of a single table.
type TableError struct {
	Name string
	Err  error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Name, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// AttachError lists every table AttachAll could not attach.
type AttachError struct {
	errs *multierror.Error
}

func (e *AttachError) Error() string { return e.errs.Error() }

// Unwrap exposes the per-table errors to errors.Is and errors.As.
func (e *AttachError) Unwrap() []error { return e.errs.WrappedErrors() }

// Tables returns the names of the tables that failed to attach, in name order.
func (e *AttachError) Tables() []string {
	names := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var te *TableError
		if errors.As(err, &te) {
			names = append(names, te.Name)
		}
	}
	return names
}

func formatTableErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "\t* " + err.Error()
	}
	return fmt.Sprintf("%d table(s) unavailable:\n%s", len(errs), strings.Join(lines, "\n"))
}
