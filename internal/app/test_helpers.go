package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/specialistvlad/pzscripts/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates an app with debug logging, no environment and the
// HCL loader. It returns the app with its report and log buffers.
func SetupAppTest(t *testing.T, opts Options) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	if opts.LookupEnv == nil {
		opts.LookupEnv = func(string) (string, bool) { return "", false }
	}
	override := opts.Override
	opts.Override = func(m *config.Model) {
		m.LogLevel = "debug"
		if override != nil {
			override(m)
		}
	}

	testApp, err := NewApp(out, logs, opts, hcl.NewLoader())
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	t.Cleanup(func() {
		if os.Getenv("PZLINT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
