package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/fsutil"
	"github.com/specialistvlad/pzscripts/internal/lint"
	"github.com/specialistvlad/pzscripts/internal/provider"
	"github.com/specialistvlad/pzscripts/internal/remote"
	"github.com/specialistvlad/pzscripts/internal/server"
)

// LintOptions are the per-invocation settings of the lint command.
type LintOptions struct {
	// Paths are files or directories; the working directory when empty.
	Paths []string
	// Remote, when set, is the URL of a diagnostics server that lints the
	// documents instead of this process.
	Remote        string
	RemoteTimeout time.Duration
}

// Lint checks every script file under opts.Paths, writes the report in the
// configured format and returns its summary. Lint errors are not an error
// of this method; callers decide from the summary.
func (a *App) Lint(ctx context.Context, opts LintOptions) (lint.Summary, error) {
	ctx = a.context(ctx, "lint")
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Lint method started.")

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := fsutil.FindFilesByExtension(paths, a.config.Lint.Extensions...)
	if err != nil {
		return lint.Summary{}, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("No script files found.", "paths", paths, "extensions", a.config.Lint.Extensions)
	}

	if opts.Remote != "" {
		return a.lintRemote(ctx, files, opts)
	}

	if _, err := a.provider.Load(ctx); err != nil {
		return lint.Summary{}, fmt.Errorf("failed to load schema: %w", err)
	}

	logger.Info("🔍 Linting script files...", "count", len(files))
	results := a.newLinter().Files(ctx, files)

	if a.config.Lint.Format == "json" {
		err = lint.WriteJSON(a.outW, results)
	} else {
		err = lint.WriteText(a.outW, results, 0, false)
	}
	if err != nil {
		return lint.Summary{}, fmt.Errorf("failed to write report: %w", err)
	}

	s := lint.Summarize(results)
	logger.Info("🏁 Lint finished.", "errors", s.Errors, "warnings", s.Warnings, "failed", s.Failed)
	return s, nil
}

func (a *App) lintRemote(ctx context.Context, files []string, opts LintOptions) (lint.Summary, error) {
	logger := ctxlog.FromContext(ctx)

	reports := make([]lint.FileReport, len(files))
	docs := make([]*document.Document, len(files))
	var (
		sent    []*document.Document
		sentIdx []int
	)
	for i, f := range files {
		doc, err := document.Load(f)
		if err != nil {
			logger.Warn("Failed to read file.", "path", f, "error", err)
			reports[i] = lint.FileReport{Filename: f, Diagnostics: []lint.Entry{}, Error: err.Error()}
			continue
		}
		docs[i] = doc
		sent = append(sent, doc)
		sentIdx = append(sentIdx, i)
	}

	logger.Info("🔍 Sending script files to diagnostics server...", "count", len(sent), "url", opts.Remote)
	got, err := remote.Lint(ctx, remote.Options{URL: opts.Remote, Timeout: opts.RemoteTimeout}, sent)
	if err != nil {
		return lint.Summary{}, fmt.Errorf("remote lint failed: %w", err)
	}
	for j, rep := range got {
		reports[sentIdx[j]] = rep.Keep(a.keepEntry)
	}

	s := lint.SummarizeReports(reports)
	if a.config.Lint.Format == "json" {
		err = lint.EncodeReport(a.outW, lint.NewReport(reports))
	} else {
		for i, rep := range reports {
			if err = lint.WriteReportText(a.outW, docs[i], rep, 0, false); err != nil {
				break
			}
		}
		if err == nil {
			err = lint.WriteSummary(a.outW, s)
		}
	}
	if err != nil {
		return lint.Summary{}, fmt.Errorf("failed to write report: %w", err)
	}
	return s, nil
}

// keepEntry applies the local hint and ignore settings to entries produced
// by a server, which may be configured differently.
func (a *App) keepEntry(e lint.Entry) bool {
	if e.Severity == diag.SeverityHint && !a.config.Lint.Hints {
		return false
	}
	return !a.config.Ignored(e.Kind)
}

// Serve runs the diagnostics server on the configured address until ctx is
// cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Serve.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Serve.Address, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	ctx = a.context(ctx, "serve")
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Serve method started.")

	if _, err := a.provider.Load(ctx); err != nil {
		ln.Close()
		return fmt.Errorf("failed to load schema: %w", err)
	}
	srv := server.New(ctx, a.newLinter())

	if a.config.Serve.Watch {
		go func() {
			err := a.provider.Watch(ctx, srv.NotifySchema)
			switch {
			case errors.Is(err, provider.ErrNotWatchable):
				logger.Warn("Schema watch disabled: no local schema path configured.")
			case err != nil:
				logger.Error("Schema watch failed.", "error", err)
			}
		}()
	}

	return srv.Serve(ctx, ln)
}
