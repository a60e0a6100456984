package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/ctxlog"
	"github.com/funvibe/funxyboot/internal/interp"
)

func main() {
	// Use a minimal logger until the manifest is read.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

// session is what every command needs once global flags are parsed
type session struct {
	out      io.Writer
	errOut   io.Writer
	manifest *config.Manifest
	logger   *slog.Logger
}

func (s *session) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, s.logger)
}

func (s *session) machine(ctx context.Context) (*interp.Machine, error) {
	return interp.NewFromManifest(s.context(ctx), s.manifest)
}

// run builds the CLI and executes args (args[0] is the program name).
func run(ctx context.Context, args []string, outW, errW io.Writer) error {
	s := &session{out: outW, errOut: errW}

	app := &cli.App{
		Name:      "funxyboot",
		Usage:     "inspect and build the builtin and frozen modules of the runtime",
		Writer:    outW,
		ErrWriter: errW,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "path to funxyboot.yaml (default: search from the working directory up)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the manifest log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "no-threads",
				Usage: "use the no-op import lock",
			},
		},
		Before: func(c *cli.Context) error {
			return s.setup(c)
		},
		// Errors are returned to main instead of exiting inside the library.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			freezeCommand(s),
			listCommand(s),
			dumpCommand(s),
			importCommand(s),
		},
	}

	return app.RunContext(ctx, args)
}

func (s *session) setup(c *cli.Context) error {
	m, err := loadManifest(c.String("manifest"))
	if err != nil {
		return err
	}
	if level := c.String("log-level"); level != "" {
		override, err := config.ParseManifest([]byte("log_level: "+level), "--log-level")
		if err != nil {
			return err
		}
		m.LogLevel = override.LogLevel
	}
	if c.Bool("no-threads") {
		threading := false
		m.Threading = &threading
	}

	s.manifest = m
	s.logger = newLogger(s.errOut, m.SlogLevel())
	return nil
}

func loadManifest(path string) (*config.Manifest, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, err = config.FindManifest(wd); err != nil {
			return nil, err
		}
	}
	if path == "" {
		return config.ParseManifest([]byte("{}"), "<default>")
	}
	return config.LoadManifest(path)
}

// newLogger writes human-readable logs to terminals and JSON elsewhere
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
