// Package imp is the module-bootstrap core of the runtime. It owns the
// builtin module registry, the frozen module store and the global import
// lock, and answers the questions the import algorithm asks of them:
// "is this name mine" and "build it for me".
//
// The core never searches paths, never chooses between finders and never
// caches results. The module cache belongs to the caller and is reached
// through the ModuleCache interface.
package imp

import "github.com/funvibe/funxyboot/internal/object"

// ModuleCache is the caller-owned mapping from module name to initialized
// module. The core only reads it.
type ModuleCache interface {
	Get(name string) (*object.Module, bool)
	Set(name string, mod *object.Module)
}

// Interp is the running interpreter as seen by the core and by builtin
// module factories.
type Interp interface {
	// Modules returns the module cache.
	Modules() ModuleCache
	// State returns the import state the interpreter was started with.
	State() *State
	// ImportFrozen decodes, executes and caches a frozen module.
	ImportFrozen(name string) (*object.Module, error)
}

// ModuleSpec identifies the module a finder was asked for.
type ModuleSpec struct {
	Name string
}

// State bundles the three leaves of the core. They share nothing; State
// only saves callers from passing them around separately.
type State struct {
	Builtins *Registry
	Frozen   *FrozenStore
	Lock     ImportLock
}

// NewState creates empty, unsealed leaves with the given lock.
func NewState(lock ImportLock) *State {
	return &State{
		Builtins: NewRegistry(),
		Frozen:   NewFrozenStore(),
		Lock:     lock,
	}
}

// Seal makes the registry and the store read-only.
func (s *State) Seal() {
	s.Builtins.Seal()
	s.Frozen.Seal()
}
