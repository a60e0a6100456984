// Package frozendb stores frozen bundles in a SQLite archive.
//
// Schema:
//
//	CREATE TABLE frozen (
//	    name       TEXT PRIMARY KEY,
//	    is_package INTEGER NOT NULL,
//	    code       BLOB NOT NULL
//	)
//
// Each code column holds one gob-encoded code object.
package frozendb

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/funvibe/funxyboot/internal/vm"
)

const driverName = "sqlite"

const schema = `CREATE TABLE IF NOT EXISTS frozen (
	name       TEXT PRIMARY KEY,
	is_package INTEGER NOT NULL,
	code       BLOB NOT NULL
)`

// Save writes every module of b into the archive at path, replacing rows
// with the same name.
func Save(ctx context.Context, path string, b *vm.FrozenBundle) (err error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema in %s: %w", path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO frozen (name, is_package, code) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, name := range b.Names() {
		mod := b.Modules[name]
		blob, err := vm.EncodeCode(mod.Code)
		if err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, mod.IsPackage, blob); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the whole archive at path into a bundle.
func Load(ctx context.Context, path string) (*vm.FrozenBundle, error) {
	// The driver would create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name, is_package, code FROM frozen ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", path, err)
	}
	defer rows.Close()

	bundle := vm.NewFrozenBundle()
	for rows.Next() {
		var (
			name      string
			isPackage bool
			blob      []byte
		)
		if err := rows.Scan(&name, &isPackage, &blob); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		code, err := vm.DecodeCode(blob)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
		bundle.Add(name, code, isPackage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bundle, nil
}
