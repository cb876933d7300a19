package config

import (
	"testing"
	"time"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults_AreValid(t *testing.T) {
	m := Defaults()
	require.NoError(t, m.Validate())
	assert.Equal(t, []string{".txt"}, m.Lint.Extensions)
	assert.Equal(t, 24*time.Hour, m.Schema.TTL)
	assert.GreaterOrEqual(t, m.Lint.Workers, 1)
}

func TestApplyEnv(t *testing.T) {
	m := Defaults()
	m.Schema.URL = "https://from.file/schema.json"

	// Empty values do not override.
	m.ApplyEnv(envOf(map[string]string{
		EnvSchema:    "schema/blocks",
		EnvSchemaURL: "",
		EnvCacheDir:  "/tmp/pz",
		EnvLogLevel:  "DEBUG",
	}))

	assert.Equal(t, "schema/blocks", m.Schema.Path)
	assert.Equal(t, "https://from.file/schema.json", m.Schema.URL)
	assert.Equal(t, "/tmp/pz", m.Schema.CacheDir)
	assert.Equal(t, "debug", m.LogLevel)
}

func TestCheckVersion(t *testing.T) {
	testCases := []struct {
		name    string
		min     string
		current string
		wantErr error
		anyErr  bool
	}{
		{name: "no requirement", min: "", current: "v0.1.0"},
		{name: "same version", min: "v0.2.0", current: "v0.2.0"},
		{name: "newer binary", min: "v0.2.0", current: "v1.0.0"},
		{name: "older binary", min: "v0.3.0", current: "v0.2.9", wantErr: ErrUnsupportedVersion},
		{name: "prerelease is older", min: "v1.0.0", current: "v1.0.0-rc.1", wantErr: ErrUnsupportedVersion},
		{name: "development build", min: "v9.0.0", current: "dev"},
		{name: "malformed requirement", min: "1.0", current: "v1.0.0", anyErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Defaults()
			m.MinVersion = tc.min

			err := m.CheckVersion(tc.current)

			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{name: "log level", mutate: func(m *Model) { m.LogLevel = "verbose" }, want: "invalid log level"},
		{name: "log format", mutate: func(m *Model) { m.LogFormat = "xml" }, want: "invalid log format"},
		{name: "output format", mutate: func(m *Model) { m.Lint.Format = "sarif" }, want: "invalid output format"},
		{name: "workers", mutate: func(m *Model) { m.Lint.Workers = 0 }, want: "invalid worker count"},
		{name: "no extensions", mutate: func(m *Model) { m.Lint.Extensions = nil }, want: "no script file extensions"},
		{name: "extension without dot", mutate: func(m *Model) { m.Lint.Extensions = []string{"txt"} }, want: "invalid extension"},
		{name: "unknown ignored kind", mutate: func(m *Model) { m.Lint.Ignore = []string{"no-such-kind"} }, want: "unknown diagnostic kind"},
		{name: "ttl", mutate: func(m *Model) { m.Schema.TTL = 0 }, want: "invalid schema ttl"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Defaults()
			tc.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestIgnored(t *testing.T) {
	m := Defaults()
	m.Lint.Ignore = []string{string(diag.KindUnknownParameter)}

	require.NoError(t, m.Validate())
	assert.True(t, m.Ignored(diag.KindUnknownParameter))
	assert.False(t, m.Ignored(diag.KindMissingComma))
}
