package imp

import (
	"fmt"
	"sort"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/vm"
)

// FrozenEntry is a module bundled with the runtime as precompiled code.
type FrozenEntry struct {
	Code      *vm.Code
	IsPackage bool
}

// FrozenStore holds the frozen modules.
//
// Like Registry it is filled during bootstrap and read-only after Seal.
// Stored code objects are never handed out directly.
type FrozenStore struct {
	entries map[string]FrozenEntry
	sealed  bool
}

// NewFrozenStore creates an empty store
func NewFrozenStore() *FrozenStore {
	return &FrozenStore{entries: make(map[string]FrozenEntry)}
}

// Add stores a frozen module.
func (s *FrozenStore) Add(name string, code *vm.Code, isPackage bool) error {
	if s.sealed {
		return fmt.Errorf("frozen store is sealed, cannot add %q", name)
	}
	if name == "" {
		return fmt.Errorf("frozen module name is empty")
	}
	if code == nil {
		return fmt.Errorf("frozen module %q has nil code", name)
	}
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("frozen module already registered: %s", name)
	}
	s.entries[name] = FrozenEntry{Code: code, IsPackage: isPackage}
	return nil
}

// LoadBundle adds every module of a bundle
func (s *FrozenStore) LoadBundle(b *vm.FrozenBundle) error {
	for _, name := range b.Names() {
		mod := b.Modules[name]
		if err := s.Add(name, mod.Code, mod.IsPackage); err != nil {
			return err
		}
	}
	return nil
}

// Seal forbids further additions
func (s *FrozenStore) Seal() {
	s.sealed = true
}

// IsFrozen reports whether name is a frozen module.
func (s *FrozenStore) IsFrozen(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// GetFrozenObject returns a copy of the frozen code for name with its
// source path set to "frozen <name>". Each call returns a new copy.
func (s *FrozenStore) GetFrozenObject(name string) (*vm.Code, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, s.notFound(name)
	}
	code := entry.Code.Clone()
	code.SourcePath = config.FrozenSourcePrefix + name
	return code, nil
}

// IsFrozenPackage reports the package flag of a frozen module.
func (s *FrozenStore) IsFrozenPackage(name string) (bool, error) {
	entry, ok := s.entries[name]
	if !ok {
		return false, s.notFound(name)
	}
	return entry.IsPackage, nil
}

// InitFrozen imports a frozen module through the interpreter. Decoding,
// execution and caching are the interpreter's; the store only checks that
// the name is frozen.
func (s *FrozenStore) InitFrozen(in Interp, name string) (*object.Module, error) {
	if !s.IsFrozen(name) {
		return nil, s.notFound(name)
	}
	return in.ImportFrozen(name)
}

// Names returns the frozen module names in sorted order
func (s *FrozenStore) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *FrozenStore) notFound(name string) *ImportError {
	return &ImportError{Name: name, Suggestion: closestName(name, s.Names())}
}
