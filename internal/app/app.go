package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/lint"
	"github.com/specialistvlad/pzscripts/internal/provider"
)

// Options holds what the entrypoint knows before configuration is resolved.
type Options struct {
	// ConfigFiles are merged in order. When empty, config.FileName in the
	// working directory is used if it exists.
	ConfigFiles []string
	// Version is the running binary version, checked against min_version.
	Version string
	// Override applies command-line flags on top of file and environment
	// settings.
	Override func(*config.Model)
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *config.Model
	provider *provider.Provider
}

// NewApp resolves the configuration (defaults, files, environment, flags)
// and builds the schema provider. Reports are written to outW and logs to
// logW.
func NewApp(outW, logW io.Writer, opts Options, loader config.Loader) (*App, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	// Files and environment may change the log level, so load them with a
	// bootstrap logger first.
	bootstrap := newLogger(levelFromEnv(lookup), "text", logW)
	ctx := ctxlog.WithLogger(context.Background(), bootstrap)

	// Files named explicitly must exist; the default one is optional.
	files := opts.ConfigFiles
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	if len(files) == 0 {
		files = []string{config.FileName}
	}
	cfg, err := loader.Load(ctx, config.Defaults(), files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ApplyEnv(lookup)
	if opts.Override != nil {
		opts.Override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.CheckVersion(opts.Version); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Configuration resolved.", "files", cfg.Files, "config", cfg.String())

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		provider: provider.New(provider.Options{
			Path:     cfg.Schema.Path,
			URL:      cfg.Schema.URL,
			CacheDir: cfg.Schema.CacheDir,
			TTL:      cfg.Schema.TTL,
		}),
	}, nil
}

// Config returns the resolved configuration. This is primarily for testing.
func (a *App) Config() *config.Model {
	return a.config
}

func (a *App) context(ctx context.Context, command string) context.Context {
	return ctxlog.WithLogger(ctx, a.logger.With("command", command))
}

func (a *App) newLinter() *lint.Linter {
	ignore := make([]diag.Kind, 0, len(a.config.Lint.Ignore))
	for _, k := range a.config.Lint.Ignore {
		ignore = append(ignore, diag.Kind(k))
	}
	return lint.New(a.provider, lint.Options{
		Workers: a.config.Lint.Workers,
		Hints:   a.config.Lint.Hints,
		Ignore:  ignore,
	})
}

func levelFromEnv(lookup func(string) (string, bool)) string {
	if v, ok := lookup(config.EnvLogLevel); ok {
		return v
	}
	return "info"
}

// Close releases resources held by the app.
func (a *App) Close() {
	a.logger.Debug("Closing app.")
	a.provider.Close()
}
