package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/pzscripts/internal/app"
	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/specialistvlad/pzscripts/internal/hcl"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitLintErrors = 1
	ExitUsage      = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalFlags are shared by every command.
type globalFlags struct {
	configFiles []string
	schema      string
	schemaURL   string
	cacheDir    string
	logLevel    string
	logFormat   string
}

// Execute runs the command tree with args. Reports and help go to outW,
// logs to errW. Every failure is returned as an *ExitError.
func Execute(ctx context.Context, outW, errW io.Writer, args []string, version string) error {
	slog.Debug("CLI parser started.")
	root := NewRootCommand(outW, errW, version)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Whatever cobra rejects itself is a usage error.
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// NewRootCommand builds the pzlint command tree.
func NewRootCommand(outW, errW io.Writer, version string) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "pzlint",
		Short: "Validate Project Zomboid script files against a block schema",
		Long: `pzlint parses brace-delimited game script files and reports structural,
parameter and inputs errors against a JSON schema of script blocks.

Configuration is read from .pzlint.hcl in the working directory, then from
PZLINT_* environment variables, then from flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringSliceVarP(&g.configFiles, "config", "c", nil, "Configuration file(s) to load instead of "+config.FileName+".")
	pf.StringVar(&g.schema, "schema", "", "Schema file or directory of per-block files.")
	pf.StringVar(&g.schemaURL, "schema-url", "", "URL to fetch the schema from.")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "Directory for the fetched schema cache.")
	pf.StringVar(&g.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&g.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newLintCommand(g, outW, errW, version),
		newServeCommand(g, outW, errW, version),
		newSchemaCommand(g, outW, errW, version),
		newVersionCommand(outW, version),
	)
	return root
}

// newApp resolves the configuration for cmd. Only flags the user set
// override file and environment settings.
func newApp(cmd *cobra.Command, g *globalFlags, outW, errW io.Writer, version string, override func(*config.Model)) (*app.App, error) {
	flags := cmd.Flags()
	a, err := app.NewApp(outW, errW, app.Options{
		ConfigFiles: g.configFiles,
		Version:     version,
		Override: func(m *config.Model) {
			if flags.Changed("schema") {
				m.Schema.Path = g.schema
			}
			if flags.Changed("schema-url") {
				m.Schema.URL = g.schemaURL
			}
			if flags.Changed("cache-dir") {
				m.Schema.CacheDir = g.cacheDir
			}
			if flags.Changed("log-level") {
				m.LogLevel = g.logLevel
			}
			if flags.Changed("log-format") {
				m.LogFormat = g.logFormat
			}
			if override != nil {
				override(m)
			}
		},
	}, hcl.NewLoader())
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return a, nil
}

func newLintCommand(g *globalFlags, outW, errW io.Writer, version string) *cobra.Command {
	var (
		remoteURL string
		timeout   time.Duration
		format    string
		hints     bool
		ignore    []string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check script files and print diagnostics",
		Long: `Check script files and print diagnostics. Paths may be files or
directories; directories are searched for files with the configured
extensions. Exits with status 1 when errors are found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			a, err := newApp(cmd, g, outW, errW, version, func(m *config.Model) {
				if flags.Changed("format") {
					m.Lint.Format = format
				}
				if flags.Changed("hints") {
					m.Lint.Hints = hints
				}
				if flags.Changed("ignore") {
					m.Lint.Ignore = append(m.Lint.Ignore, ignore...)
				}
				if flags.Changed("workers") {
					m.Lint.Workers = workers
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Lint(cmd.Context(), app.LintOptions{
				Paths:         args,
				Remote:        remoteURL,
				RemoteTimeout: timeout,
			})
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			if !summary.OK() {
				return &ExitError{
					Code:    ExitLintErrors,
					Message: fmt.Sprintf("lint failed: %d error(s), %d unreadable file(s)", summary.Errors, summary.Failed),
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&remoteURL, "remote", "", "Send documents to a running diagnostics server, e.g. http://localhost:7070.")
	f.DurationVar(&timeout, "remote-timeout", 30*time.Second, "Time allowed for the whole remote session.")
	f.StringVarP(&format, "format", "f", "text", "Output format. Options: 'text' or 'json'.")
	f.BoolVar(&hints, "hints", false, "Include hint-level diagnostics.")
	f.StringSliceVar(&ignore, "ignore", nil, "Diagnostic kinds to drop, e.g. unknown-parameter.")
	f.IntVarP(&workers, "workers", "w", 0, "Number of files parsed concurrently.")
	return cmd
}

func newServeCommand(g *globalFlags, outW, errW io.Writer, version string) *cobra.Command {
	var (
		address string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagnostics to editors over socket.io",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			a, err := newApp(cmd, g, outW, errW, version, func(m *config.Model) {
				if flags.Changed("address") {
					m.Serve.Address = address
				}
				if flags.Changed("watch") {
					m.Serve.Watch = watch
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Serve(cmd.Context()); err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", ":7070", "Address to listen on.")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload a local schema when it changes and notify clients.")
	return cmd
}

func newSchemaCommand(g *globalFlags, outW, errW io.Writer, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and build schema documents",
	}

	run := func(fn func(a *app.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, outW, errW, version, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := fn(a, cmd, args); err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "combine <dir>",
			Short: "Merge a directory of per-block files into one schema document",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(a *app.App, cmd *cobra.Command, args []string) error {
				return a.SchemaCombine(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "find <term>",
			Short: "Fuzzy-search block kinds and parameter names",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(a *app.App, cmd *cobra.Command, args []string) error {
				return a.SchemaFind(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "show [kind]",
			Short: "Show the active schema or one block definition",
			Args:  cobra.MaximumNArgs(1),
			RunE: run(func(a *app.App, cmd *cobra.Command, args []string) error {
				kind := ""
				if len(args) == 1 {
					kind = args[0]
				}
				return a.SchemaShow(cmd.Context(), kind)
			}),
		},
	)
	return cmd
}

func newVersionCommand(outW io.Writer, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(outW, "pzlint", version)
		},
	}
}
