package interp

import (
	"sort"
	"sync"

	"github.com/funvibe/funxyboot/internal/object"
)

// ModuleCache maps module names to initialized modules.
type ModuleCache struct {
	mu   sync.RWMutex
	mods map[string]*object.Module
}

// NewModuleCache creates an empty cache
func NewModuleCache() *ModuleCache {
	return &ModuleCache{mods: make(map[string]*object.Module)}
}

func (c *ModuleCache) Get(name string) (*object.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mod, ok := c.mods[name]
	return mod, ok
}

func (c *ModuleCache) Set(name string, mod *object.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mods[name] = mod
}

// Delete removes name from the cache
func (c *ModuleCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.mods, name)
}

// Names returns cached module names in sorted order
func (c *ModuleCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.mods))
	for name := range c.mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
