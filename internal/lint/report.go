package lint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
)

// Entry is the wire form of one diagnostic. Lines and columns are 1-based;
// columns count grapheme clusters.
type Entry struct {
	Kind      diag.Kind     `json:"kind"`
	Severity  diag.Severity `json:"severity"`
	Message   string        `json:"message"`
	Detail    string        `json:"detail,omitempty"`
	Args      diag.Args     `json:"args,omitempty"`
	Range     diag.Range    `json:"range"`
	Line      int           `json:"line"`
	Column    int           `json:"column"`
	EndLine   int           `json:"endLine"`
	EndColumn int           `json:"endColumn"`
	// Path is the chain of block kinds enclosing the diagnostic.
	Path string `json:"path,omitempty"`
}

// FileReport is the wire form of one linted document.
type FileReport struct {
	Filename      string  `json:"filename"`
	SchemaVersion string  `json:"schemaVersion,omitempty"`
	Diagnostics   []Entry `json:"diagnostics"`
	Error         string  `json:"error,omitempty"`
}

// NewFileReport converts r for JSON output.
func NewFileReport(r Result) FileReport {
	rep := FileReport{Filename: r.Filename, Diagnostics: []Entry{}}
	if r.Err != nil {
		rep.Error = r.Err.Error()
		return rep
	}
	rep.SchemaVersion = r.Tree.Schema().Version()
	for _, d := range r.Diagnostics {
		rng := r.Document.Range(d.Range.Start, d.Range.End)
		e := Entry{
			Kind:      d.Kind,
			Severity:  d.Severity,
			Message:   d.Message,
			Detail:    d.Detail,
			Args:      d.Args,
			Range:     d.Range,
			Line:      rng.Start.Line,
			Column:    rng.Start.Column,
			EndLine:   rng.End.Line,
			EndColumn: rng.End.Column,
		}
		if blk := r.Tree.BlockAt(d.Range.Start); blk != nil && !blk.IsRoot() {
			e.Path = r.Tree.PathString(blk.ID)
		}
		rep.Diagnostics = append(rep.Diagnostics, e)
	}
	return rep
}

// DiagnosticsOf rebuilds the diagnostics carried by a report.
func (rep FileReport) DiagnosticsOf() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(rep.Diagnostics))
	for _, e := range rep.Diagnostics {
		out = append(out, diag.Diagnostic{
			Kind:     e.Kind,
			Severity: e.Severity,
			Message:  e.Message,
			Detail:   e.Detail,
			Args:     e.Args,
			Range:    e.Range,
		})
	}
	return out
}

// Report is the JSON document written by the lint command.
type Report struct {
	Files   []FileReport `json:"files"`
	Summary Summary      `json:"summary"`
}

// NewReport bundles file reports with their summary.
func NewReport(files []FileReport) Report {
	return Report{Files: files, Summary: SummarizeReports(files)}
}

// WriteJSON writes results as an indented JSON Report.
func WriteJSON(w io.Writer, results []Result) error {
	files := make([]FileReport, 0, len(results))
	for _, r := range results {
		files = append(files, NewFileReport(r))
	}
	return EncodeReport(w, NewReport(files))
}

// EncodeReport writes rep as indented JSON.
func EncodeReport(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteText renders the diagnostics of each result with source snippets,
// followed by a one-line summary.
func WriteText(w io.Writer, results []Result, width uint, color bool) error {
	for _, r := range results {
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: %v\n\n", r.Filename, r.Err); err != nil {
				return err
			}
			continue
		}
		if err := writeDocument(w, r.Document, r.Diagnostics, width, color); err != nil {
			return err
		}
	}
	return WriteSummary(w, Summarize(results))
}

// WriteSummary writes the one-line summary that closes text output.
func WriteSummary(w io.Writer, s Summary) error {
	_, err := fmt.Fprintf(w, "%d file(s) checked: %d error(s), %d warning(s), %d hint(s)\n", s.Files, s.Errors, s.Warnings, s.Hints)
	return err
}

func writeDocument(w io.Writer, doc *document.Document, ds []diag.Diagnostic, width uint, color bool) error {
	if len(ds) == 0 {
		return nil
	}
	return diag.WriteText(w, doc.Name(), []byte(doc.Text()), ds, doc, width, color)
}

// WriteReportText renders a report received from a server against the local
// copy of its document.
func WriteReportText(w io.Writer, doc *document.Document, rep FileReport, width uint, color bool) error {
	if rep.Error != "" {
		_, err := fmt.Fprintf(w, "%s: %s\n\n", rep.Filename, rep.Error)
		return err
	}
	return writeDocument(w, doc, rep.DiagnosticsOf(), width, color)
}

// Keep returns a copy of rep holding only the entries keep accepts.
func (rep FileReport) Keep(keep func(Entry) bool) FileReport {
	out := rep
	out.Diagnostics = make([]Entry, 0, len(rep.Diagnostics))
	for _, e := range rep.Diagnostics {
		if keep(e) {
			out.Diagnostics = append(out.Diagnostics, e)
		}
	}
	return out
}

// SummarizeReports totals the diagnostics carried by reports.
func SummarizeReports(reports []FileReport) Summary {
	s := Summary{Files: len(reports)}
	for _, rep := range reports {
		if rep.Error != "" {
			s.Failed++
			continue
		}
		for _, e := range rep.Diagnostics {
			switch e.Severity {
			case diag.SeverityError:
				s.Errors++
			case diag.SeverityWarning:
				s.Warnings++
			case diag.SeverityHint:
				s.Hints++
			}
		}
	}
	return s
}
