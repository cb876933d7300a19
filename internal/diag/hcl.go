package diag

import (
	"io"

	"github.com/hashicorp/hcl/v2"
)

// Ranger maps byte ranges of a document onto HCL source ranges.
type Ranger interface {
	Range(start, end int) hcl.Range
}

// HCL converts d into an hcl.Diagnostic so it can be rendered with HCL's
// diagnostic writers. HCL has no hint level, so hints are reported as
// warnings with a "Hint: " summary prefix.
func (d Diagnostic) HCL(r Ranger) *hcl.Diagnostic {
	severity := hcl.DiagError
	summary := d.Message
	switch d.Severity {
	case SeverityWarning:
		severity = hcl.DiagWarning
	case SeverityHint:
		severity = hcl.DiagWarning
		summary = "Hint: " + summary
	}
	subject := r.Range(d.Range.Start, d.Range.End)
	return &hcl.Diagnostic{
		Severity: severity,
		Summary:  summary,
		Detail:   d.Detail,
		Subject:  &subject,
	}
}

// ToHCL converts every diagnostic of ds.
func ToHCL(ds []Diagnostic, r Ranger) hcl.Diagnostics {
	out := make(hcl.Diagnostics, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.HCL(r))
	}
	return out
}

// WriteText renders ds with source snippets taken from src. filename must
// match the filename the Ranger stamps into its ranges.
func WriteText(w io.Writer, filename string, src []byte, ds []Diagnostic, r Ranger, width uint, color bool) error {
	files := map[string]*hcl.File{filename: {Bytes: src}}
	wr := hcl.NewDiagnosticTextWriter(w, files, width, color)
	return wr.WriteDiagnostics(ToHCL(ds, r))
}
