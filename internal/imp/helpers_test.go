package imp

import (
	"sync"

	"github.com/funvibe/funxyboot/internal/object"
)

type mapCache struct {
	mu   sync.Mutex
	mods map[string]*object.Module
}

func newMapCache() *mapCache {
	return &mapCache{mods: make(map[string]*object.Module)}
}

func (c *mapCache) Get(name string) (*object.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mod, ok := c.mods[name]
	return mod, ok
}

func (c *mapCache) Set(name string, mod *object.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mods[name] = mod
}

// fakeInterp records frozen imports instead of executing them
type fakeInterp struct {
	cache        *mapCache
	state        *State
	frozenCalls  []string
	importFrozen func(name string) (*object.Module, error)
}

func newFakeInterp() *fakeInterp {
	return &fakeInterp{cache: newMapCache(), state: NewState(NewImportLock(true))}
}

func (f *fakeInterp) Modules() ModuleCache { return f.cache }
func (f *fakeInterp) State() *State        { return f.state }

func (f *fakeInterp) ImportFrozen(name string) (*object.Module, error) {
	f.frozenCalls = append(f.frozenCalls, name)
	if f.importFrozen != nil {
		return f.importFrozen(name)
	}
	return object.NewModule(name), nil
}
