package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest represents the top-level funxyboot.yaml configuration.
type Manifest struct {
	// Threading selects the blocking import lock. When false the import lock
	// degrades to no-op calls suitable for single-threaded embeddings.
	// Defaults to true if omitted.
	Threading *bool `yaml:"threading,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	// DisableBuiltins names builtin modules left out of the registry.
	DisableBuiltins []string `yaml:"disable_builtins,omitempty"`

	// Frozen describes where frozen modules are loaded from at start-up.
	Frozen FrozenSources `yaml:"frozen,omitempty"`

	// Modules are frozen module definitions compiled by `funxyboot freeze`.
	Modules []ModuleDef `yaml:"modules,omitempty"`
}

// FrozenSources lists the places frozen modules are read from.
// All configured sources are merged; a name present in two sources is an error.
type FrozenSources struct {
	// Bundle is a path to a serialized frozen bundle (relative to the manifest).
	Bundle string `yaml:"bundle,omitempty"`

	// Database is a path to a sqlite frozen archive (relative to the manifest).
	Database string `yaml:"database,omitempty"`

	// Embedded reads the bundle appended to the running executable.
	Embedded bool `yaml:"embedded,omitempty"`
}

// ModuleDef describes one frozen module.
//
//	modules:
//	  - name: _bootstrap
//	    package: true
//	    imports: [sys]
//	    attrs:
//	      version: "1.0"
type ModuleDef struct {
	Name    string         `yaml:"name"`
	Package bool           `yaml:"package,omitempty"`
	Imports []string       `yaml:"imports,omitempty"`
	Attrs   map[string]any `yaml:"attrs,omitempty"`
}

// LoadManifest reads and parses a funxyboot.yaml file.
// Relative frozen source paths are resolved against the manifest directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data, path)
	if err != nil {
		return nil, err
	}
	m.resolvePaths(filepath.Dir(path))
	return m, nil
}

// ParseManifest parses funxyboot.yaml content from bytes.
// The path argument is used only for error messages.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	m.setDefaults()
	return &m, nil
}

// FindManifest searches for a manifest starting from dir and walking up
// to parent directories. Returns an empty path and nil error if not found.
func FindManifest(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ManifestFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ThreadingEnabled reports whether the blocking import lock is requested.
func (m *Manifest) ThreadingEnabled() bool {
	return m.Threading == nil || *m.Threading
}

// SlogLevel maps LogLevel to a slog.Level.
func (m *Manifest) SlogLevel() slog.Level {
	switch m.LogLevel {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (m *Manifest) validate(path string) error {
	switch m.LogLevel {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("%s: unknown log_level %q", path, m.LogLevel)
	}

	seen := make(map[string]bool)
	for i, mod := range m.Modules {
		if mod.Name == "" {
			return fmt.Errorf("%s: modules[%d]: name is required", path, i)
		}
		if seen[mod.Name] {
			return fmt.Errorf("%s: modules[%d]: duplicate module %q", path, i, mod.Name)
		}
		seen[mod.Name] = true

		for j, imp := range mod.Imports {
			if imp == "" {
				return fmt.Errorf("%s: modules[%d].imports[%d] (%s): empty import", path, i, j, mod.Name)
			}
		}
		for key, val := range mod.Attrs {
			if !isAttrValue(val) {
				return fmt.Errorf("%s: modules[%d] (%s): attr %q has unsupported type %T",
					path, i, mod.Name, key, val)
			}
		}
	}
	return nil
}

func (m *Manifest) setDefaults() {
	if m.LogLevel == "" {
		m.LogLevel = LogLevelInfo
	}
}

func (m *Manifest) resolvePaths(dir string) {
	if m.Frozen.Bundle != "" && !filepath.IsAbs(m.Frozen.Bundle) {
		m.Frozen.Bundle = filepath.Join(dir, m.Frozen.Bundle)
	}
	if m.Frozen.Database != "" && !filepath.IsAbs(m.Frozen.Database) {
		m.Frozen.Database = filepath.Join(dir, m.Frozen.Database)
	}
}

// isAttrValue reports whether v is a scalar the assembler can turn into a constant.
func isAttrValue(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return true
	}
	return false
}
