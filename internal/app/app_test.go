package app

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/hcl"
	"github.com/specialistvlad/pzscripts/internal/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "module": {"shouldHaveParent": false, "ID": {}},
  "item": {
    "description": "A thing that can be carried.",
    "shouldHaveParent": true,
    "parents": ["module"],
    "ID": {},
    "parameters": {
      "weight": {"name": "Weight", "type": "float", "description": "Encumbrance."},
      "displayname": {"name": "DisplayName", "type": "string"}
    }
  }
}`

const badScript = "module Base {\n    item Axe {\n        Weight = 2\n    }\n}\n"
const goodScript = "module Base {\n    item Saw {\n        Weight = 1,\n    }\n}\n"

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// workspace lays out a schema file and two scripts, and returns the
// directory, the schema path and the scripts directory.
func workspace(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath := writeFile(t, filepath.Join(dir, "schema.json"), testSchema)
	scripts := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(scripts, "bad.txt"), badScript)
	writeFile(t, filepath.Join(scripts, "good.txt"), goodScript)
	writeFile(t, filepath.Join(scripts, "notes.md"), "not a script")
	return dir, schemaPath, scripts
}

func withSchema(path string, more ...func(*config.Model)) func(*config.Model) {
	return func(m *config.Model) {
		m.Schema.Path = path
		for _, f := range more {
			f(m)
		}
	}
}

func TestNewApp_ConfigLayers(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, config.FileName), `
log_format = "json"
schema {
  path = "from-file.json"
  ttl  = "1h"
}
lint {
  workers = 3
  format  = "json"
}
`)
	env := map[string]string{config.EnvSchema: "from-env.json"}

	// --- Act ---
	a, _, _ := SetupAppTest(t, Options{
		ConfigFiles: []string{file},
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		Override: func(m *config.Model) { m.Lint.Format = "text" },
	})

	// --- Assert ---
	cfg := a.Config()
	assert.Equal(t, []string{file}, cfg.Files)
	assert.Equal(t, "json", cfg.LogFormat, "file beats defaults")
	assert.Equal(t, time.Hour, cfg.Schema.TTL)
	assert.Equal(t, 3, cfg.Lint.Workers)
	assert.Equal(t, "from-env.json", cfg.Schema.Path, "environment beats file")
	assert.Equal(t, "text", cfg.Lint.Format, "flags beat file")
}

func TestNewApp_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		version string
		wantErr string
		is      error
	}{
		{
			name:    "invalid setting",
			content: `lint { format = "xml" }`,
			wantErr: "invalid configuration",
		},
		{
			name:    "syntax error",
			content: `lint {`,
			wantErr: "failed to load configuration",
		},
		{
			name:    "binary too old",
			content: `min_version = "v9.0.0"`,
			version: "v0.1.0",
			is:      config.ErrUnsupportedVersion,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file := writeFile(t, filepath.Join(t.TempDir(), config.FileName), tc.content)

			_, err := NewApp(&SafeBuffer{}, &SafeBuffer{}, Options{
				ConfigFiles: []string{file},
				Version:     tc.version,
				LookupEnv:   func(string) (string, bool) { return "", false },
			}, hcl.NewLoader())

			require.Error(t, err)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			}
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestNewApp_MissingExplicitConfig(t *testing.T) {
	_, err := NewApp(&SafeBuffer{}, &SafeBuffer{}, Options{
		ConfigFiles: []string{filepath.Join(t.TempDir(), "missing.hcl")},
		LookupEnv:   func(string) (string, bool) { return "", false },
	}, hcl.NewLoader())

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLint_Text(t *testing.T) {
	// --- Arrange ---
	_, schemaPath, scripts := workspace(t)
	a, out, logs := SetupAppTest(t, Options{Override: withSchema(schemaPath)})

	// --- Act ---
	s, err := a.Lint(context.Background(), LintOptions{Paths: []string{scripts}})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, lint.Summary{Files: 2, Errors: 1}, s)
	assert.False(t, s.OK())
	assert.Contains(t, out.String(), "Missing trailing comma.")
	assert.Contains(t, out.String(), "2 file(s) checked: 1 error(s), 0 warning(s), 0 hint(s)")
	assert.NotContains(t, out.String(), "notes.md")
	assert.Contains(t, logs.String(), "command=lint")
}

func TestLint_JSON(t *testing.T) {
	_, schemaPath, scripts := workspace(t)
	a, out, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath, func(m *config.Model) {
		m.Lint.Format = "json"
	})})

	s, err := a.Lint(context.Background(), LintOptions{Paths: []string{scripts}})

	require.NoError(t, err)
	var rep lint.Report
	require.NoError(t, json.Unmarshal([]byte(out.String()), &rep))
	assert.Equal(t, s, rep.Summary)
	require.Len(t, rep.Files, 2)
	assert.Equal(t, filepath.Join(scripts, "bad.txt"), rep.Files[0].Filename)
	require.Len(t, rep.Files[0].Diagnostics, 1)
	assert.Equal(t, diag.KindMissingComma, rep.Files[0].Diagnostics[0].Kind)
}

func TestLint_IgnoredKind(t *testing.T) {
	_, schemaPath, scripts := workspace(t)
	a, _, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath, func(m *config.Model) {
		m.Lint.Ignore = []string{string(diag.KindMissingComma)}
	})})

	s, err := a.Lint(context.Background(), LintOptions{Paths: []string{scripts}})

	require.NoError(t, err)
	assert.True(t, s.OK())
}

func TestLint_Errors(t *testing.T) {
	dir, _, scripts := workspace(t)

	t.Run("missing path", func(t *testing.T) {
		a, _, _ := SetupAppTest(t, Options{})
		_, err := a.Lint(context.Background(), LintOptions{Paths: []string{filepath.Join(dir, "nope")}})
		require.ErrorContains(t, err, "failed to find script files")
	})

	t.Run("broken schema", func(t *testing.T) {
		broken := writeFile(t, filepath.Join(dir, "broken.json"), "{")
		a, _, _ := SetupAppTest(t, Options{Override: withSchema(broken)})
		_, err := a.Lint(context.Background(), LintOptions{Paths: []string{scripts}})
		require.ErrorContains(t, err, "failed to load schema")
	})
}

func TestLint_Remote(t *testing.T) {
	// --- Arrange ---
	_, schemaPath, scripts := workspace(t)
	serverApp, _, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath)})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serverApp.serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// The client has no schema of its own; the server's is used.
	client, out, _ := SetupAppTest(t, Options{})

	// --- Act ---
	s, err := client.Lint(context.Background(), LintOptions{
		Paths:         []string{scripts},
		Remote:        "http://" + ln.Addr().String(),
		RemoteTimeout: 10 * time.Second,
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, lint.Summary{Files: 2, Errors: 1}, s)
	assert.Contains(t, out.String(), "Missing trailing comma.")
	assert.Contains(t, out.String(), "2 file(s) checked: 1 error(s)")
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	a, _, _ := SetupAppTest(t, Options{Override: func(m *config.Model) {
		m.Serve.Address = ln.Addr().String()
	}})

	err = a.Serve(context.Background())
	require.ErrorContains(t, err, "failed to listen")
}

func TestSchemaShow(t *testing.T) {
	_, schemaPath, _ := workspace(t)

	t.Run("all kinds", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath)})
		require.NoError(t, a.SchemaShow(context.Background(), ""))
		assert.Contains(t, out.String(), "Source:  "+schemaPath)
		assert.Contains(t, out.String(), "Blocks:  2")
		assert.Contains(t, out.String(), "A thing that can be carried.")
	})

	t.Run("one kind", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath)})
		require.NoError(t, a.SchemaShow(context.Background(), "item"))
		assert.Contains(t, out.String(), "parents:  module")
		assert.Contains(t, out.String(), "DisplayName")
		assert.Contains(t, out.String(), "Weight")
	})

	t.Run("unknown kind", func(t *testing.T) {
		a, _, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath)})
		err := a.SchemaShow(context.Background(), "itme")
		require.ErrorContains(t, err, `did you mean "item"?`)
	})
}

func TestSchemaFind(t *testing.T) {
	_, schemaPath, _ := workspace(t)
	a, out, _ := SetupAppTest(t, Options{Override: withSchema(schemaPath)})

	require.NoError(t, a.SchemaFind(context.Background(), "wgt"))
	assert.Contains(t, out.String(), "item.Weight")
	assert.Contains(t, out.String(), "Encumbrance.")

	out2 := &SafeBuffer{}
	a.outW = out2
	require.NoError(t, a.SchemaFind(context.Background(), "zzzz"))
	assert.Equal(t, "No match for \"zzzz\".\n", out2.String())
}

func TestSchemaCombine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "module.json"), `{"shouldHaveParent": false, "ID": {}}`)
	writeFile(t, filepath.Join(dir, "item.json"), `{"shouldHaveParent": true, "parents": ["module"], "ID": {},
  "parameters": {"Weight": {"name": "Weight", "type": "float"}}}`)
	a, out, _ := SetupAppTest(t, Options{})

	require.NoError(t, a.SchemaCombine(context.Background(), dir))

	var combined map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.String()), &combined))
	assert.Contains(t, combined, "module")
	assert.Contains(t, combined, "item")

	require.Error(t, a.SchemaCombine(context.Background(), t.TempDir()), "an empty directory has no blocks")
}
