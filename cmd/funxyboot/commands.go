package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/frozendb"
	"github.com/funvibe/funxyboot/internal/imp"
	"github.com/funvibe/funxyboot/internal/interp"
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/vm"
)

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

func freezeCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "freeze",
		Usage: "compile the manifest's modules into a frozen bundle and/or sqlite archive",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "bundle file to write"},
			&cli.StringFlag{Name: "db", Usage: "sqlite archive to write"},
			&cli.StringFlag{Name: "pack", Usage: "host binary to append the bundle to (written to --out)"},
		},
		Action: func(c *cli.Context) error {
			if len(s.manifest.Modules) == 0 {
				return cli.Exit("manifest defines no modules to freeze", 2)
			}
			bundle, err := interp.AssembleBundle(s.manifest.Modules)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				out = s.manifest.Frozen.Bundle
			}
			db := c.String("db")
			if db == "" {
				db = s.manifest.Frozen.Database
			}
			if out == "" && db == "" {
				out = "boot" + config.BundleFileExt
			}

			if host := c.String("pack"); host != "" {
				if out == "" {
					return cli.Exit("--pack needs an output file", 2)
				}
				if err := packInto(host, out, bundle); err != nil {
					return err
				}
				s.logger.Info("packed frozen bundle", "host", host, "out", out, "modules", len(bundle.Modules))
			} else if out != "" {
				if err := interp.WriteBundleFile(out, bundle); err != nil {
					return err
				}
				s.logger.Info("wrote frozen bundle", "out", out, "modules", len(bundle.Modules))
			}

			if db != "" {
				if err := frozendb.Save(s.context(c.Context), db, bundle); err != nil {
					return err
				}
				s.logger.Info("wrote frozen archive", "db", db, "modules", len(bundle.Modules))
			}
			return nil
		},
	}
}

func packInto(host, out string, bundle *vm.FrozenBundle) error {
	data, err := os.ReadFile(host)
	if err != nil {
		return fmt.Errorf("reading host binary: %w", err)
	}
	data = data[:vm.GetHostBinarySize(data)]
	packed, err := vm.PackSelfContained(data, bundle)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, packed, 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func listCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list builtin and frozen module names",
		Action: func(c *cli.Context) error {
			m, err := s.machine(c.Context)
			if err != nil {
				return err
			}
			color := isTerminal(s.out)
			st := m.State()
			for _, name := range st.Builtins.Names() {
				fmt.Fprintf(s.out, "builtin  %s\n", paint(color, colorCyan, name))
			}
			for _, name := range st.Frozen.Names() {
				suffix := ""
				if pkg, _ := st.Frozen.IsFrozenPackage(name); pkg {
					suffix = " (package)"
				}
				fmt.Fprintf(s.out, "frozen   %s%s\n", paint(color, colorYellow, name), suffix)
			}
			return nil
		},
	}
}

func paint(enabled bool, color, text string) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}

func dumpCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print the code object of a frozen module",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "disasm", Usage: "print a disassembly instead of the raw structure"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("dump takes exactly one module name", 2)
			}
			m, err := s.machine(c.Context)
			if err != nil {
				return err
			}
			code, err := m.State().Frozen.GetFrozenObject(c.Args().First())
			if err != nil {
				return err
			}
			if c.Bool("disasm") {
				fmt.Fprintf(s.out, "%s\n%s", code.Inspect(), vm.Disassemble(code))
				return nil
			}
			cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
			cfg.Fdump(s.out, code)
			return nil
		},
	}
}

func importCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import modules concurrently and print their attributes",
		ArgsUsage: "NAME...",
		Action: func(c *cli.Context) error {
			names := c.Args().Slice()
			if len(names) == 0 {
				return cli.Exit("import needs at least one module name", 2)
			}
			m, err := s.machine(c.Context)
			if err != nil {
				return err
			}

			mods, err := importAll(c.Context, m, names, !imp.IsNoLock(m.State().Lock))
			if err != nil {
				return err
			}

			for _, mod := range mods {
				file := mod.File
				if file == "" {
					file = "builtin"
				}
				fmt.Fprintf(s.out, "%s (%s): %s\n", mod.Name, file, strings.Join(mod.AttrNames(), ", "))
			}
			return nil
		},
	}
}

type importer interface {
	Import(name string) (*object.Module, error)
}

// importAll imports names in parallel, or one at a time when the import
// lock is a no-op. Results keep the order of names.
func importAll(ctx context.Context, in importer, names []string, threaded bool) ([]*object.Module, error) {
	mods := make([]*object.Module, len(names))
	g, _ := errgroup.WithContext(ctx)
	if !threaded {
		g.SetLimit(1)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			mod, err := in.Import(name)
			if err != nil {
				return err
			}
			mods[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mods, nil
}
