package frozendb

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/vm"
)

func testBundle(t *testing.T) *vm.FrozenBundle {
	t.Helper()
	bundle := vm.NewFrozenBundle()
	for _, def := range []config.ModuleDef{
		{Name: "_bootstrap", Package: true, Imports: []string{"sys"}, Attrs: map[string]any{"version": "1.0"}},
		{Name: "_bootstrap_external", Attrs: map[string]any{"ratio": 0.25, "enabled": true}},
	} {
		code, err := vm.Assemble(def)
		require.NoError(t, err)
		bundle.Add(def.Name, code, def.Package)
	}
	return bundle
}

func TestSaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "frozen.db")
	want := testBundle(t)

	require.NoError(t, Save(ctx, path, want))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "frozen.db")
	require.NoError(t, Save(ctx, path, testBundle(t)))

	update := vm.NewFrozenBundle()
	code, err := vm.Assemble(config.ModuleDef{Name: "_bootstrap", Attrs: map[string]any{"version": "2.0"}})
	require.NoError(t, err)
	update.Add("_bootstrap", code, false)
	require.NoError(t, Save(ctx, path, update))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"_bootstrap", "_bootstrap_external"}, got.Names())
	assert.False(t, got.Modules["_bootstrap"].IsPackage)
}

func TestLoadMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (x INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := Load(context.Background(), path)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.NoFileExists(t, path)
}

func TestLoadCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO frozen (name, is_package, code) VALUES ('bad', 0, x'00ff')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
