package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/mobtimer/internal/config"
	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
	"github.com/roach88/mobtimer/internal/statefile"
	"github.com/roach88/mobtimer/internal/store"
)

// loadConfig reads --config, else $MOBTIMER_CONFIG, else the defaults.
func (o *RootOptions) loadConfig() (config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// setupLogging installs the default slog handler. --verbose wins over the
// configured level.
func (o *RootOptions) setupLogging(w io.Writer, cfg config.Config) {
	level := cfg.LogLevel
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// persister is a state.Persister that may hold resources.
type persister interface {
	state.Persister
	Close() error
}

// fileCloser adapts statefile.File, which holds nothing open.
type fileCloser struct {
	*statefile.File
}

func (fileCloser) Close() error { return nil }

// openPersister opens the configured backend.
func openPersister(cfg config.Config) (persister, error) {
	switch cfg.Backend {
	case config.BackendFile:
		path, err := cfg.StateFilePath()
		if err != nil {
			return nil, err
		}
		var opts []statefile.Option
		if cfg.StateFile != "" {
			// Older releases only ever wrote the default location.
			opts = append(opts, statefile.WithLegacyPath(""))
		}
		slog.Debug("using state file", "path", path)
		return fileCloser{statefile.New(path, opts...)}, nil

	case config.BackendSQLite, "":
		path, err := cfg.DatabasePath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		slog.Debug("opening database", "path", path)
		st, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// newEngine builds an engine wired to the configured tuning and persister.
func newEngine(cfg config.Config, p state.Persister, extra ...engine.Option) *engine.Engine {
	var rosterOpts []roster.Option
	if cfg.PlaceholderImage != "" {
		rosterOpts = append(rosterOpts, roster.WithPlaceholderImage(cfg.PlaceholderImage))
	}
	opts := []engine.Option{
		engine.WithPersister(p),
		engine.WithTickRate(cfg.TickRate),
		engine.WithSecondLength(cfg.SecondLength),
		engine.WithRosterOptions(rosterOpts...),
	}
	return engine.New(append(opts, extra...)...)
}

// withEngine runs fn against a loaded engine that is not running. Changes
// fn makes are persisted by the engine itself.
func (o *RootOptions) withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	o.setupLogging(cmd.ErrOrStderr(), cfg)

	p, err := openPersister(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open state", err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			slog.Error("error closing state", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng := newEngine(cfg, p)
	if err := eng.Load(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to load state", err)
	}
	return fn(ctx, eng)
}
