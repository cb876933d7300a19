package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "module": {"shouldHaveParent": false, "ID": {}},
  "item": {
    "shouldHaveParent": true,
    "parents": ["module"],
    "ID": {},
    "parameters": {
      "weight": {"name": "Weight", "type": "float"},
      "obsolete": {"name": "Obsolete", "type": "boolean", "deprecated": true}
    }
  }
}`

// sample has one diagnostic of each severity: a missing comma on line 3, an
// unknown parameter on line 4 and a deprecated one on line 5.
const sample = `module Base {
    item Axe {
        Weight = 2
        Colour = red,
        Obsolete = true,
    }
}
`

const clean = "module Base {\n    item Saw {\n        Weight = 1,\n    }\n}\n"

type staticSource struct{ snap *schema.Snapshot }

func (s staticSource) Current() *schema.Snapshot { return s.snap }

func newLinter(opts Options) *Linter {
	return New(staticSource{schema.MustDecode([]byte(testSchema), "test")}, opts)
}

func kinds(ds []diag.Diagnostic) []diag.Kind {
	out := make([]diag.Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func TestDocument_Filtering(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
		want []diag.Kind
	}{
		{
			name: "hints are dropped by default",
			opts: Options{},
			want: []diag.Kind{diag.KindMissingComma, diag.KindDeprecatedParameter},
		},
		{
			name: "hints kept on request",
			opts: Options{Hints: true},
			want: []diag.Kind{diag.KindMissingComma, diag.KindUnknownParameter, diag.KindDeprecatedParameter},
		},
		{
			name: "ignored kinds",
			opts: Options{Hints: true, Ignore: []diag.Kind{diag.KindMissingComma, diag.KindUnknownParameter}},
			want: []diag.Kind{diag.KindDeprecatedParameter},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := newLinter(tc.opts).Document(document.New("sample.txt", sample))

			require.NoError(t, res.Err)
			assert.Equal(t, tc.want, kinds(res.Diagnostics))
			assert.Len(t, res.Tree.Diagnostics(), 3, "the tree keeps every diagnostic")
		})
	}
}

func TestFiles(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	good := filepath.Join(dir, "good.txt")
	missing := filepath.Join(dir, "missing.txt")
	require.NoError(t, os.WriteFile(bad, []byte(sample), 0o600))
	require.NoError(t, os.WriteFile(good, []byte(clean), 0o600))
	paths := []string{bad, missing, good, bad}

	// --- Act ---
	results := newLinter(Options{Workers: 2}).Files(context.Background(), paths)

	// --- Assert ---
	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Filename, "results keep input order")
	}
	assert.Len(t, results[0].Diagnostics, 2)
	require.ErrorIs(t, results[1].Err, os.ErrNotExist)
	assert.Empty(t, results[2].Diagnostics)

	s := Summarize(results)
	assert.Equal(t, Summary{Files: 4, Failed: 1, Errors: 2, Warnings: 2}, s)
	assert.False(t, s.OK())
	assert.True(t, Summarize(results[2:3]).OK())
}

func TestFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newLinter(Options{Workers: 1}).Files(ctx, []string{"a.txt", "b.txt"})

	require.Len(t, results, 2)
	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestWriteJSON(t *testing.T) {
	// --- Arrange ---
	l := newLinter(Options{})
	results := []Result{
		l.Document(document.New("sample.txt", sample)),
		{Filename: "gone.txt", Err: os.ErrNotExist},
	}
	var buf bytes.Buffer

	// --- Act ---
	require.NoError(t, WriteJSON(&buf, results))

	// --- Assert ---
	var rep Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	require.Len(t, rep.Files, 2)

	first := rep.Files[0]
	assert.Equal(t, "sample.txt", first.Filename)
	assert.Equal(t, results[0].Tree.Schema().Version(), first.SchemaVersion)
	require.Len(t, first.Diagnostics, 2)

	comma := first.Diagnostics[0]
	assert.Equal(t, diag.KindMissingComma, comma.Kind)
	assert.Equal(t, diag.SeverityError, comma.Severity)
	assert.Equal(t, 3, comma.Line)
	assert.Equal(t, 9, comma.Column)
	assert.Equal(t, 3, comma.EndLine)
	assert.Equal(t, 19, comma.EndColumn)
	assert.Equal(t, "module → item", comma.Path)
	assert.Equal(t, results[0].Diagnostics[0].Range, comma.Range)

	assert.Equal(t, os.ErrNotExist.Error(), rep.Files[1].Error)
	assert.Empty(t, rep.Files[1].Diagnostics)
	assert.Equal(t, Summary{Files: 2, Failed: 1, Errors: 1, Warnings: 1}, rep.Summary)

	assert.Equal(t, results[0].Diagnostics, first.DiagnosticsOf(), "a report round-trips to the same diagnostics")
}

func TestWriteText(t *testing.T) {
	l := newLinter(Options{})
	results := []Result{
		l.Document(document.New("sample.txt", sample)),
		l.Document(document.New("clean.txt", clean)),
	}
	var buf bytes.Buffer

	require.NoError(t, WriteText(&buf, results, 0, false))

	out := buf.String()
	assert.Contains(t, out, "Error: Missing trailing comma.")
	assert.Contains(t, out, "on sample.txt line 3")
	assert.Contains(t, out, "Warning: ")
	assert.NotContains(t, out, "clean.txt")
	assert.Contains(t, out, "2 file(s) checked: 1 error(s), 1 warning(s), 0 hint(s)")
}

func TestReports_KeepAndSummarize(t *testing.T) {
	l := newLinter(Options{Hints: true})
	rep := NewFileReport(l.Document(document.New("sample.txt", sample)))
	failed := FileReport{Filename: "gone.txt", Diagnostics: []Entry{}, Error: "missing"}

	assert.Equal(t, Summary{Files: 2, Failed: 1, Errors: 1, Warnings: 1, Hints: 1},
		SummarizeReports([]FileReport{rep, failed}))

	noHints := rep.Keep(func(e Entry) bool { return e.Severity != diag.SeverityHint })
	assert.Len(t, noHints.Diagnostics, 2)
	assert.Len(t, rep.Diagnostics, 3, "Keep leaves the original untouched")
	assert.Equal(t, Summary{Files: 1, Errors: 1, Warnings: 1}, SummarizeReports([]FileReport{noHints}))
}
