package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	// --- Arrange ---
	path := writeConfig(t, t.TempDir(), ".pzlint.hcl", `
min_version = "v0.2.0"
log_level   = "debug"

schema {
  url       = "https://example.org/scriptBlocks.json"
  cache_dir = ".pzlint-cache"
  ttl       = "12h"
}

lint {
  extensions = [".txt", ".pzs"]
  hints      = true
  ignore     = ["unknown-parameter"]
  workers    = 3
  format     = "json"
}

serve {
  address = "127.0.0.1:9000"
  watch   = true
}
`)
	base := config.Defaults()

	// --- Act ---
	m, err := NewLoader().Load(context.Background(), base, path)

	// --- Assert ---
	require.NoError(t, err)
	want := config.Defaults()
	want.MinVersion = "v0.2.0"
	want.LogLevel = "debug"
	want.Schema = config.Schema{
		URL:      "https://example.org/scriptBlocks.json",
		CacheDir: ".pzlint-cache",
		TTL:      12 * time.Hour,
	}
	want.Lint = config.Lint{
		Extensions: []string{".txt", ".pzs"},
		Hints:      true,
		Ignore:     []string{"unknown-parameter"},
		Workers:    3,
		Format:     "json",
	}
	want.Serve = config.Serve{Address: "127.0.0.1:9000", Watch: true}
	want.Files = []string{path}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, m.Validate())
}

func TestLoad_PartialFileKeepsBase(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "a.hcl", `
lint {
  hints = true
}
`)
	base := config.Defaults()
	base.Schema.Path = "from/flags"

	m, err := NewLoader().Load(context.Background(), base, path)

	require.NoError(t, err)
	assert.True(t, m.Lint.Hints)
	assert.Equal(t, "from/flags", m.Schema.Path)
	assert.Equal(t, base.Lint.Workers, m.Lint.Workers)
	assert.Equal(t, 24*time.Hour, m.Schema.TTL)
	assert.Empty(t, base.Files, "the base model must not be modified")
}

func TestLoad_LaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.hcl", "lint {\n  workers = 2\n  format = \"json\"\n}\n")
	second := writeConfig(t, dir, "second.hcl", "lint {\n  workers = 5\n}\n")

	m, err := NewLoader().Load(context.Background(), config.Defaults(), first, second)

	require.NoError(t, err)
	assert.Equal(t, 5, m.Lint.Workers)
	assert.Equal(t, "json", m.Lint.Format)
	assert.Equal(t, []string{first, second}, m.Files)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	m, err := NewLoader().Load(context.Background(), config.Defaults(), filepath.Join(t.TempDir(), ".pzlint.hcl"))

	require.NoError(t, err)
	assert.Empty(t, m.Files)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "syntax error",
			content: "lint {\n  workers = 2\n",
			want:    []string{"failed to parse HCL file"},
		},
		{
			name:    "unknown attribute",
			content: "lint {\n  threads = 2\n}\n",
			want:    []string{"failed to decode HCL file", "threads"},
		},
		{
			name:    "wrong attribute type",
			content: "lint {\n  workers = \"many\"\n}\n",
			want:    []string{"failed to decode HCL file"},
		},
		{
			name:    "bad duration",
			content: "schema {\n  ttl = \"soon\"\n}\n",
			want:    []string{"invalid configuration", "Invalid duration", "cfg.hcl:2"},
		},
		{
			name:    "duration without unit",
			content: "schema {\n  ttl = 3600\n}\n",
			want:    []string{"Invalid duration"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "cfg.hcl", tc.content)

			_, err := NewLoader().Load(context.Background(), config.Defaults(), path)

			require.Error(t, err)
			for _, w := range tc.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
