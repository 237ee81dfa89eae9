// Package plugins provides the built-in tables served by vtabd.
package plugins

import (
	"github.com/hashicorp/go-multierror"

	"github.com/hugr-lab/airport-vtable/registry"
	"github.com/hugr-lab/airport-vtable/table"
)

// All returns a fresh instance of every built-in table plugin.
func All() []table.Plugin {
	return []table.Plugin{
		Processes(),
		SystemInfo(),
		Environment(),
	}
}

// Register adds every built-in plugin to r, or to the default registry if r is nil.
// Plugins that fail to register are reported together; the rest stay registered.
func Register(r *registry.Registry) error {
	if r == nil {
		r = registry.Default
	}
	var errs *multierror.Error
	for _, p := range All() {
		if err := r.Register(p); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Enable registers the built-in plugins whose names are listed. Unknown names are
// reported in the returned error.
func Enable(r *registry.Registry, names ...string) error {
	if r == nil {
		r = registry.Default
	}
	byName := make(map[string]table.Plugin)
	for _, p := range All() {
		byName[p.Name()] = p
	}
	var errs *multierror.Error
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			errs = multierror.Append(errs, &UnknownPluginError{Name: name})
			continue
		}
		if err := r.Register(p); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// UnknownPluginError reports a table name with no built-in plugin.
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return "unknown table: " + e.Name
}
