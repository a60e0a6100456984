package interp

import (
	"context"
	"fmt"
	"os"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/ctxlog"
	"github.com/funvibe/funxyboot/internal/frozendb"
	"github.com/funvibe/funxyboot/internal/vm"
)

// LoadFrozenSources reads every frozen source configured in src.
// Missing optional sources are errors; an executable without an appended
// bundle is not.
func LoadFrozenSources(ctx context.Context, src config.FrozenSources) ([]*vm.FrozenBundle, error) {
	logger := ctxlog.FromContext(ctx)
	var bundles []*vm.FrozenBundle

	if src.Bundle != "" {
		b, err := ReadBundleFile(src.Bundle)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded frozen bundle", "path", src.Bundle, "modules", len(b.Modules))
		bundles = append(bundles, b)
	}

	if src.Database != "" {
		b, err := frozendb.Load(ctx, src.Database)
		if err != nil {
			return nil, fmt.Errorf("loading frozen archive: %w", err)
		}
		logger.Debug("loaded frozen archive", "path", src.Database, "modules", len(b.Modules))
		bundles = append(bundles, b)
	}

	if src.Embedded {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable: %w", err)
		}
		b, err := readEmbeddedBundle(exe)
		if err != nil {
			return nil, err
		}
		if b != nil {
			logger.Debug("loaded embedded bundle", "path", exe, "modules", len(b.Modules))
			bundles = append(bundles, b)
		}
	}

	return bundles, nil
}

// ReadBundleFile reads a serialized frozen bundle
func ReadBundleFile(path string) (*vm.FrozenBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle %s: %w", path, err)
	}
	b, err := vm.DeserializeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// WriteBundleFile serializes b to path
func WriteBundleFile(path string, b *vm.FrozenBundle) error {
	data, err := b.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle %s: %w", path, err)
	}
	return nil
}

func readEmbeddedBundle(path string) (*vm.FrozenBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading executable %s: %w", path, err)
	}
	b, err := vm.ExtractEmbeddedBundle(data)
	if err != nil {
		return nil, fmt.Errorf("embedded bundle in %s: %w", path, err)
	}
	return b, nil
}

// NewFromManifest bootstraps a machine from a parsed manifest
func NewFromManifest(ctx context.Context, m *config.Manifest) (*Machine, error) {
	bundles, err := LoadFrozenSources(ctx, m.Frozen)
	if err != nil {
		return nil, err
	}
	return New(ctx, Options{
		Threading:        m.ThreadingEnabled(),
		DisabledBuiltins: m.DisableBuiltins,
		Bundles:          bundles,
	})
}

// AssembleBundle compiles manifest module definitions into a bundle
func AssembleBundle(defs []config.ModuleDef) (*vm.FrozenBundle, error) {
	bundle := vm.NewFrozenBundle()
	for _, def := range defs {
		code, err := vm.Assemble(def)
		if err != nil {
			return nil, err
		}
		bundle.Add(def.Name, code, def.Package)
	}
	return bundle, nil
}
