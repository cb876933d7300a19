// Package diag defines the positioned, severity-tagged reports produced while
// parsing script documents, and the append-only Sink that collects them for
// a single parse pass.
package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity ranks a diagnostic. Lower values are more severe.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity converts a severity name into its Severity value.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(name) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "hint":
		return SeverityHint, nil
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// Range is a half-open byte range [Start, End) into a document.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether offset falls within r.
func (r Range) Contains(offset int) bool { return offset >= r.Start && offset < r.End }

// Args holds the interpolation values of a message template.
type Args map[string]string

// Diagnostic is a single report against a document.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail,omitempty"`
	Args     Args     `json:"args,omitempty"`
	Range    Range    `json:"range"`
}

// New builds a diagnostic of the given kind, interpolating args into the
// kind's message template.
func New(kind Kind, severity Severity, rng Range, args Args) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: severity,
		Message:  Format(kind.Template(), args),
		Args:     args,
		Range:    rng,
	}
}

// WithDetail returns a copy of d carrying an additional explanation.
func (d Diagnostic) WithDetail(detail string) Diagnostic {
	d.Detail = detail
	return d
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%d:%d] %s: %s", d.Severity, d.Range.Start, d.Range.End, d.Kind, d.Message)
}

// Format replaces every {name} placeholder in template with args[name].
// Placeholders without a value are replaced by the empty string.
func Format(template string, args Args) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] == '{' {
			if j := strings.IndexByte(template[i+1:], '}'); j > 0 && isPlaceholder(template[i+1:i+1+j]) {
				b.WriteString(args[template[i+1:i+1+j]])
				i += j + 2
				continue
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}

func isPlaceholder(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Sink accumulates diagnostics for one parse pass. Diagnostics are only ever
// appended; nothing is merged or removed.
type Sink struct {
	items []Diagnostic
}

// Add appends d to the sink.
func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

// Report builds a diagnostic with New and appends it.
func (s *Sink) Report(kind Kind, severity Severity, rng Range, args Args) {
	s.Add(New(kind, severity, rng, args))
}

// Len returns the number of collected diagnostics.
func (s *Sink) Len() int { return len(s.items) }

// Diagnostics returns a copy of the collected diagnostics in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return slices.Clone(s.items)
}

// HasErrors reports whether any error-level diagnostic was collected.
func (s *Sink) HasErrors() bool {
	return Count(s.items, SeverityError) > 0
}

// Count returns how many diagnostics in ds carry the given severity.
func Count(ds []Diagnostic, severity Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Sort orders ds by position, then severity, then kind. The sort is stable so
// diagnostics that compare equal keep their report order.
func Sort(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Range.Start, b.Range.Start),
			cmp.Compare(a.Range.End, b.Range.End),
			cmp.Compare(a.Severity, b.Severity),
			strings.Compare(string(a.Kind), string(b.Kind)),
		)
	})
}

// Filter returns the diagnostics of ds for which keep returns true.
func Filter(ds []Diagnostic, keep func(Diagnostic) bool) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Quote renders names as a comma separated list of single-quoted values, the
// form used by message templates.
func Quote(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
