// Package interp is the host side of the import core: it owns the module
// cache, brackets every import with the import lock, consults builtins
// before frozen modules and executes frozen code.
package interp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/funvibe/funxyboot/internal/ctxlog"
	"github.com/funvibe/funxyboot/internal/imp"
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/stdlib"
	"github.com/funvibe/funxyboot/internal/vm"
)

// Options configures a Machine.
type Options struct {
	// Threading selects the blocking import lock. Ignored when Lock is set.
	Threading bool

	// Lock overrides the import lock, e.g. to share imp.GlobalLock().
	Lock imp.ImportLock

	// DisabledBuiltins are builtin module names left out of the registry.
	DisabledBuiltins []string

	// Bundles are merged into the frozen store in order.
	Bundles []*vm.FrozenBundle
}

// ModuleNotFoundError is returned by Import when no finder owns a name.
type ModuleNotFoundError struct {
	Name string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("no module named %s", e.Name)
}

// Machine is a running interpreter as far as imports are concerned.
type Machine struct {
	id      string
	logger  *slog.Logger
	state   *imp.State
	modules *ModuleCache
}

// New bootstraps a machine: builtins are registered, bundles loaded and
// both sealed before New returns.
func New(ctx context.Context, opts Options) (*Machine, error) {
	lock := opts.Lock
	if lock == nil {
		lock = imp.NewImportLock(opts.Threading)
	}

	id := uuid.NewString()
	m := &Machine{
		id:      id,
		logger:  ctxlog.FromContext(ctx).With("machine", id),
		state:   imp.NewState(lock),
		modules: NewModuleCache(),
	}

	if err := stdlib.Register(m.state.Builtins, opts.DisabledBuiltins...); err != nil {
		return nil, fmt.Errorf("registering builtins: %w", err)
	}
	for i, b := range opts.Bundles {
		if err := m.state.Frozen.LoadBundle(b); err != nil {
			return nil, fmt.Errorf("loading frozen bundle %d: %w", i, err)
		}
	}
	m.state.Seal()

	m.logger.Debug("machine bootstrapped",
		"builtins", len(m.state.Builtins.Names()),
		"frozen", len(m.state.Frozen.Names()))
	return m, nil
}

// ID identifies the machine in logs
func (m *Machine) ID() string { return m.id }

func (m *Machine) Modules() imp.ModuleCache { return m.modules }
func (m *Machine) State() *imp.State        { return m.state }

// Import resolves name: module cache first, then builtins, then frozen
// modules. The whole resolution runs under the import lock.
func (m *Machine) Import(name string) (*object.Module, error) {
	lock := m.state.Lock
	lock.Acquire()
	defer m.release()

	if mod, ok := m.modules.Get(name); ok {
		return mod, nil
	}

	if mod, ok := m.state.Builtins.CreateBuiltin(m, imp.ModuleSpec{Name: name}); ok {
		m.modules.Set(name, mod)
		if status := m.state.Builtins.ExecBuiltin(mod); status != 0 {
			m.modules.Delete(name)
			return nil, fmt.Errorf("initializing builtin %s: status %d", name, status)
		}
		m.logger.Debug("imported builtin", "module", name)
		return mod, nil
	}

	if m.state.Frozen.IsFrozen(name) {
		return m.state.Frozen.InitFrozen(m, name)
	}

	return nil, &ModuleNotFoundError{Name: name}
}

// ImportFrozen executes a frozen module and caches it. The module is
// cached before its body runs so circular imports observe it; it is
// removed again if the body fails.
func (m *Machine) ImportFrozen(name string) (*object.Module, error) {
	m.state.Lock.Acquire()
	defer m.release()

	code, err := m.state.Frozen.GetFrozenObject(name)
	if err != nil {
		return nil, err
	}

	mod := object.NewModule(name)
	mod.File = code.SourcePath
	m.modules.Set(name, mod)

	if err := vm.Exec(code, mod, m); err != nil {
		m.modules.Delete(name)
		m.logger.Warn("frozen module failed", "module", name, "error", err)
		return nil, err
	}

	m.logger.Debug("imported frozen", "module", name, "file", mod.File)
	return mod, nil
}

func (m *Machine) release() {
	if err := m.state.Lock.Release(); err != nil {
		// Only reachable if a module body released the lock it was run under.
		m.logger.Error("import lock", "error", err)
	}
}
