package interp

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/frozendb"
	"github.com/funvibe/funxyboot/internal/imp"
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/vm"
)

var bootDefs = []config.ModuleDef{
	{Name: "_bootstrap", Package: true, Imports: []string{"sys", "_bootstrap_external"}, Attrs: map[string]any{"version": "1.0"}},
	{Name: "_bootstrap_external", Imports: []string{"_imp"}, Attrs: map[string]any{"path_sep": "/"}},
	{Name: "cycle_a", Imports: []string{"cycle_b"}},
	{Name: "cycle_b", Imports: []string{"cycle_a"}},
	{Name: "broken", Imports: []string{"does_not_exist"}},
}

func newMachine(t *testing.T, threading bool) *Machine {
	t.Helper()
	bundle, err := AssembleBundle(bootDefs)
	require.NoError(t, err)
	m, err := New(context.Background(), Options{Threading: threading, Bundles: []*vm.FrozenBundle{bundle}})
	require.NoError(t, err)
	return m
}

func TestMachine_ImportBuiltin(t *testing.T) {
	m := newMachine(t, true)

	sys, err := m.Import("sys")
	require.NoError(t, err)
	assert.Equal(t, "sys", sys.Name)

	again, err := m.Import("sys")
	require.NoError(t, err)
	assert.Same(t, sys, again, "second import is served from the cache")

	cached, ok := m.Modules().Get("sys")
	require.True(t, ok)
	assert.Same(t, sys, cached)
	assert.False(t, m.State().Lock.Held())
}

func TestMachine_ImportFrozenWithNestedImports(t *testing.T) {
	m := newMachine(t, true)

	boot, err := m.Import("_bootstrap")
	require.NoError(t, err)
	assert.Equal(t, "frozen _bootstrap", boot.File)

	version, ok := boot.Get("version")
	require.True(t, ok)
	assert.Equal(t, &object.String{Value: "1.0"}, version)

	ext, ok := boot.Get("_bootstrap_external")
	require.True(t, ok)
	extMod := ext.(*object.Module)
	impMod, ok := extMod.Get("_imp")
	require.True(t, ok)
	assert.Equal(t, config.ImpModuleName, impMod.(*object.Module).Name)

	assert.Equal(t,
		[]string{"_bootstrap", "_bootstrap_external", "_imp", "sys"},
		m.modules.Names())
	assert.False(t, m.State().Lock.Held())
}

func TestMachine_CircularFrozenImports(t *testing.T) {
	m := newMachine(t, true)

	a, err := m.Import("cycle_a")
	require.NoError(t, err)
	b, ok := a.Get("cycle_b")
	require.True(t, ok)
	back, ok := b.(*object.Module).Get("cycle_a")
	require.True(t, ok)
	assert.Same(t, a, back)
}

func TestMachine_FailedFrozenModuleIsUncached(t *testing.T) {
	m := newMachine(t, true)

	_, err := m.Import("broken")
	require.Error(t, err)

	var notFound *ModuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "does_not_exist", notFound.Name)

	_, cached := m.Modules().Get("broken")
	assert.False(t, cached)
	assert.False(t, m.State().Lock.Held())
}

func TestMachine_ImportUnknown(t *testing.T) {
	m := newMachine(t, true)

	_, err := m.Import("nowhere")
	var notFound *ModuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.EqualError(t, err, "no module named nowhere")
}

func TestMachine_ImportFrozenMissing(t *testing.T) {
	m := newMachine(t, true)

	_, err := m.ImportFrozen("sys")
	assert.ErrorIs(t, err, imp.ErrNotFrozen)
}

func TestMachine_ScriptLevelImpModule(t *testing.T) {
	m := newMachine(t, true)
	impMod, err := m.Import("_imp")
	require.NoError(t, err)

	attr, _ := impMod.Get("init_frozen")
	res, err := attr.(*object.Builtin).Call(&object.String{Value: "_bootstrap_external"})
	require.NoError(t, err)
	assert.Equal(t, "frozen _bootstrap_external", res.(*object.Module).File)

	attr, _ = impMod.Get("release_lock")
	_, err = attr.(*object.Builtin).Call()
	assert.ErrorIs(t, err, imp.ErrLockNotHeld)
}

func TestMachine_ConcurrentImportsShareModules(t *testing.T) {
	m := newMachine(t, true)

	var mu sync.Mutex
	seen := make(map[*object.Module]bool)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			mod, err := m.Import("_bootstrap")
			if err != nil {
				return err
			}
			mu.Lock()
			seen[mod] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, 1, "every goroutine must observe the same module")
	assert.False(t, m.State().Lock.Held())
}

func TestMachine_NoThreading(t *testing.T) {
	m := newMachine(t, false)

	boot, err := m.Import("_bootstrap")
	require.NoError(t, err)
	assert.Equal(t, "_bootstrap", boot.Name)
	assert.False(t, m.State().Lock.Held())
	assert.NoError(t, m.State().Lock.Release())
}

func TestMachine_SharedGlobalLock(t *testing.T) {
	m, err := New(context.Background(), Options{Lock: imp.GlobalLock()})
	require.NoError(t, err)
	assert.Same(t, imp.GlobalLock(), m.State().Lock)
}

func TestMachine_DisabledBuiltins(t *testing.T) {
	m, err := New(context.Background(), Options{DisabledBuiltins: []string{config.MathModuleName}})
	require.NoError(t, err)
	assert.False(t, m.State().Builtins.IsBuiltin(config.MathModuleName))

	_, err = New(context.Background(), Options{DisabledBuiltins: []string{"bogus"}})
	assert.Error(t, err)
}

func TestMachine_DuplicateFrozenAcrossBundles(t *testing.T) {
	bundle, err := AssembleBundle(bootDefs[:1])
	require.NoError(t, err)

	_, err = New(context.Background(), Options{Bundles: []*vm.FrozenBundle{bundle, bundle}})
	assert.ErrorContains(t, err, "already registered")
}

func TestNewFromManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bootBundle, err := AssembleBundle(bootDefs[:2])
	require.NoError(t, err)
	require.NoError(t, WriteBundleFile(filepath.Join(dir, "boot.fxf"), bootBundle))

	archive, err := AssembleBundle(bootDefs[2:4])
	require.NoError(t, err)
	require.NoError(t, frozendb.Save(ctx, filepath.Join(dir, "frozen.db"), archive))

	manifest, err := config.ParseManifest([]byte(`
threading: false
frozen:
  bundle: boot.fxf
  database: frozen.db
`), "funxyboot.yaml")
	require.NoError(t, err)
	manifest.Frozen.Bundle = filepath.Join(dir, manifest.Frozen.Bundle)
	manifest.Frozen.Database = filepath.Join(dir, manifest.Frozen.Database)

	m, err := NewFromManifest(ctx, manifest)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"_bootstrap", "_bootstrap_external", "cycle_a", "cycle_b"},
		m.State().Frozen.Names())

	_, err = m.Import("cycle_a")
	require.NoError(t, err)
}

func TestReadBundleFile_Errors(t *testing.T) {
	_, err := ReadBundleFile(filepath.Join(t.TempDir(), "absent.fxf"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	path := filepath.Join(t.TempDir(), "garbage.fxf")
	require.NoError(t, os.WriteFile(path, []byte("not a bundle"), 0o644))
	_, err = ReadBundleFile(path)
	assert.ErrorContains(t, err, "magic")
}
