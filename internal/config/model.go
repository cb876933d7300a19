package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"golang.org/x/mod/semver"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".pzlint.hcl"

// Environment variables that override file settings.
const (
	EnvSchema    = "PZLINT_SCHEMA"
	EnvSchemaURL = "PZLINT_SCHEMA_URL"
	EnvCacheDir  = "PZLINT_CACHE_DIR"
	EnvLogLevel  = "PZLINT_LOG_LEVEL"
)

// ErrUnsupportedVersion is returned when the configuration requires a newer
// binary than the running one.
var ErrUnsupportedVersion = errors.New("configuration requires a newer pzlint")

// Model is the unified configuration of the tool.
type Model struct {
	// MinVersion is the oldest binary version allowed to use this
	// configuration, as a semantic version ("v0.3.0").
	MinVersion string
	LogLevel   string
	LogFormat  string

	Schema Schema
	Lint   Lint
	Serve  Serve

	// Files lists the configuration files merged into the model.
	Files []string
}

// Schema selects where schema snapshots come from.
type Schema struct {
	Path     string
	URL      string
	CacheDir string
	TTL      time.Duration
}

// Lint controls the lint command.
type Lint struct {
	Extensions []string
	// Hints includes hint-level diagnostics in the output.
	Hints bool
	// Ignore lists diagnostic kinds that are dropped from the output.
	Ignore  []string
	Workers int
	// Format is "text" or "json".
	Format string
}

// Serve controls the diagnostics server.
type Serve struct {
	Address string
	// Watch reloads a local schema when it changes on disk.
	Watch bool
}

// Defaults returns the built-in configuration.
func Defaults() *Model {
	return &Model{
		LogLevel:  "info",
		LogFormat: "text",
		Schema: Schema{
			TTL: 24 * time.Hour,
		},
		Lint: Lint{
			Extensions: []string{".txt"},
			Workers:    runtime.NumCPU(),
			Format:     "text",
		},
		Serve: Serve{
			Address: ":7070",
		},
	}
}

// ApplyEnv overrides settings from environment variables. lookup is usually
// os.LookupEnv.
func (m *Model) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSchema); ok && v != "" {
		m.Schema.Path = v
	}
	if v, ok := lookup(EnvSchemaURL); ok && v != "" {
		m.Schema.URL = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		m.Schema.CacheDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		m.LogLevel = strings.ToLower(v)
	}
}

// CheckVersion compares MinVersion with the running binary version. A
// binary without a semantic version (a development build) always passes.
func (m *Model) CheckVersion(current string) error {
	if m.MinVersion == "" {
		return nil
	}
	if !semver.IsValid(m.MinVersion) {
		return fmt.Errorf("invalid min_version %q: not a semantic version", m.MinVersion)
	}
	if !semver.IsValid(current) {
		return nil
	}
	if semver.Compare(current, m.MinVersion) < 0 {
		return fmt.Errorf("%w: %s is required, running %s", ErrUnsupportedVersion, m.MinVersion, current)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (m *Model) Validate() error {
	switch m.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", m.LogLevel)
	}
	if m.LogFormat != "text" && m.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", m.LogFormat)
	}
	if m.Lint.Format != "text" && m.Lint.Format != "json" {
		return fmt.Errorf("invalid output format %q: must be 'text' or 'json'", m.Lint.Format)
	}
	if m.Lint.Workers < 1 {
		return fmt.Errorf("invalid worker count %d: must be at least 1", m.Lint.Workers)
	}
	if len(m.Lint.Extensions) == 0 {
		return errors.New("no script file extensions configured")
	}
	for _, ext := range m.Lint.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q: must start with '.'", ext)
		}
	}
	for _, k := range m.Lint.Ignore {
		if !diag.Kind(k).IsKnown() {
			return fmt.Errorf("unknown diagnostic kind %q in ignore list", k)
		}
	}
	if m.Schema.TTL <= 0 {
		return fmt.Errorf("invalid schema ttl %s: must be positive", m.Schema.TTL)
	}
	return nil
}

// Ignored reports whether diagnostics of kind are dropped.
func (m *Model) Ignored(kind diag.Kind) bool {
	return slices.Contains(m.Lint.Ignore, string(kind))
}

// String renders the model for debug logs.
func (m *Model) String() string {
	return fmt.Sprintf("schema(path=%q url=%q cache=%q ttl=%s) lint(ext=%v hints=%s ignore=%v workers=%d format=%s) serve(addr=%s watch=%s)",
		m.Schema.Path, m.Schema.URL, m.Schema.CacheDir, m.Schema.TTL,
		m.Lint.Extensions, strconv.FormatBool(m.Lint.Hints), m.Lint.Ignore, m.Lint.Workers, m.Lint.Format,
		m.Serve.Address, strconv.FormatBool(m.Serve.Watch))
}
