package imp

import (
	"fmt"
	"sort"

	"github.com/funvibe/funxyboot/internal/object"
)

// Factory builds a fresh builtin module. It may be called more than once;
// each call may return a distinct module.
type Factory func(in Interp) *object.Module

// Registry maps builtin module names to their factories.
//
// Registration happens during bootstrap on a single goroutine. After Seal
// the registry is read-only and safe for concurrent readers.
type Registry struct {
	factories map[string]Factory
	sealed    bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if r.sealed {
		return fmt.Errorf("builtin registry is sealed, cannot register %q", name)
	}
	if name == "" {
		return fmt.Errorf("builtin module name is empty")
	}
	if f == nil {
		return fmt.Errorf("builtin module %q has nil factory", name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("builtin module already registered: %s", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Seal forbids further registration
func (r *Registry) Seal() {
	r.sealed = true
}

// IsBuiltin reports whether name has a registered factory.
func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// CreateBuiltin returns the module for spec.Name.
//
// A module already in the interpreter's cache is returned unchanged.
// Otherwise a registered factory is invoked and its result returned
// without being cached; caching is the caller's job. When the name is
// neither cached nor registered the second result is false, which tells
// the import algorithm to try its next finder. That is not an error.
func (r *Registry) CreateBuiltin(in Interp, spec ModuleSpec) (*object.Module, bool) {
	if mod, ok := in.Modules().Get(spec.Name); ok {
		return mod, true
	}
	if f, ok := r.factories[spec.Name]; ok {
		return f(in), true
	}
	return nil, false
}

// ExecBuiltin runs post-construction initialization for a module that is
// already in the cache. No builtin needs it yet; it always returns 0.
func (r *Registry) ExecBuiltin(mod *object.Module) int {
	return 0
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
