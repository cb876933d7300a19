// Package lint runs the script parser over files and documents and prepares
// the resulting diagnostics for output.
package lint

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"github.com/specialistvlad/pzscripts/internal/script"
)

// SchemaSource hands out the schema snapshot to parse against.
type SchemaSource interface {
	Current() *schema.Snapshot
}

// Options tunes which diagnostics are kept and how many files are parsed at
// once.
type Options struct {
	Workers int
	// Hints keeps hint-level diagnostics.
	Hints bool
	// Ignore drops diagnostics of these kinds.
	Ignore []diag.Kind
}

// Result is the outcome of linting one document.
type Result struct {
	Filename string
	Document *document.Document
	Tree     *script.Tree
	// Diagnostics are filtered and sorted by position.
	Diagnostics []diag.Diagnostic
	// Err is set when the file could not be read.
	Err error
}

// Linter parses documents against the current schema.
type Linter struct {
	source SchemaSource
	opts   Options
}

// New creates a linter.
func New(source SchemaSource, opts Options) *Linter {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	return &Linter{source: source, opts: opts}
}

// Document parses doc with the current snapshot.
func (l *Linter) Document(doc *document.Document) Result {
	tree := script.Parse(doc, l.source.Current())
	return Result{
		Filename:    doc.Name(),
		Document:    doc,
		Tree:        tree,
		Diagnostics: l.filter(tree.Diagnostics()),
	}
}

// Files lints every file in paths concurrently. Results keep the order of
// paths. Files not yet started when ctx is cancelled carry ctx.Err().
func (l *Linter) Files(ctx context.Context, paths []string) []Result {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Linting files.", "count", len(paths), "workers", l.opts.Workers)

	results := make([]Result, len(paths))
	sem := make(chan struct{}, l.opts.Workers)
	var wg sync.WaitGroup

	cancelled := func(from int) []Result {
		for j := from; j < len(paths); j++ {
			results[j] = Result{Filename: paths[j], Err: ctx.Err()}
		}
		wg.Wait()
		return results
	}
	for i, path := range paths {
		if ctx.Err() != nil {
			return cancelled(i)
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return cancelled(i)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			doc, err := document.Load(path)
			if err != nil {
				logger.Warn("Failed to read file.", "path", path, "error", err)
				results[i] = Result{Filename: path, Err: err}
				return
			}
			results[i] = l.Document(doc)
			logger.Debug("File linted.", "path", path, "diagnostics", len(results[i].Diagnostics))
		}()
	}

	wg.Wait()
	return results
}

func (l *Linter) filter(ds []diag.Diagnostic) []diag.Diagnostic {
	out := diag.Filter(ds, func(d diag.Diagnostic) bool {
		if d.Severity == diag.SeverityHint && !l.opts.Hints {
			return false
		}
		return !slices.Contains(l.opts.Ignore, d.Kind)
	})
	diag.Sort(out)
	return out
}

// Summary counts diagnostics across results.
type Summary struct {
	Files    int `json:"files"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Hints    int `json:"hints"`
}

// Summarize totals the diagnostics of results.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Errors += diag.Count(r.Diagnostics, diag.SeverityError)
		s.Warnings += diag.Count(r.Diagnostics, diag.SeverityWarning)
		s.Hints += diag.Count(r.Diagnostics, diag.SeverityHint)
	}
	return s
}

// OK reports whether the run found no errors and read every file.
func (s Summary) OK() bool {
	return s.Errors == 0 && s.Failed == 0
}
