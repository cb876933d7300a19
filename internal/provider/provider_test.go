package provider

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteSchema = `{
  "module": {"shouldHaveParent": false, "ID": {}},
  "item": {
    "shouldHaveParent": true,
    "parents": ["module"],
    "ID": {},
    "parameters": {"weight": {"name": "Weight", "type": "float"}}
  }
}`

const updatedSchema = `{
  "module": {"shouldHaveParent": false, "ID": {}},
  "vehicle": {"shouldHaveParent": true, "parents": ["module"], "ID": {}}
}`

// clock is a settable time source for cache expiry.
type clock struct{ now atomic.Pointer[time.Time] }

func newClock(t time.Time) *clock {
	c := &clock{}
	c.set(t)
	return c
}

func (c *clock) set(t time.Time) { c.now.Store(&t) }
func (c *clock) Now() time.Time { return *c.now.Load() }
func (c *clock) advance(d time.Duration) { c.set(c.Now().Add(d)) }

// schemaServer serves body with status and counts the requests it receives.
func schemaServer(t *testing.T, status *atomic.Int32, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func okStatus() *atomic.Int32 {
	var s atomic.Int32
	s.Store(http.StatusOK)
	return &s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Bundled(t *testing.T) {
	p := New(Options{})
	assert.Same(t, schema.Default(), p.Current(), "bundled schema is current before any load")

	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultSource, snap.Source())
	assert.Same(t, snap, p.Current())
}

func TestLoad_LocalPath(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scriptBlocks.json")
		writeFile(t, path, remoteSchema)

		snap, err := New(Options{Path: path}).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, path, snap.Source())
		assert.True(t, snap.IsKnown("item"))
	})

	t.Run("directory of block files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "module.json"), `{"shouldHaveParent": false, "ID": {}}`)
		writeFile(t, filepath.Join(dir, "item.json"), `{"version": "1", "shouldHaveParent": true, "parents": ["module"]}`)

		snap, err := New(Options{Path: dir}).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"item", "module"}, snap.Kinds())
	})

	t.Run("empty directory", func(t *testing.T) {
		p := New(Options{Path: t.TempDir()})
		_, err := p.Load(context.Background())
		require.ErrorIs(t, err, ErrNoSchema)
		assert.Same(t, schema.Default(), p.Current(), "a failed load must not replace the current schema")
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		writeFile(t, path, "")
		_, err := New(Options{Path: path}).Load(context.Background())
		require.ErrorIs(t, err, ErrNoSchema)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := New(Options{Path: filepath.Join(t.TempDir(), "nope.json")}).Load(context.Background())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		writeFile(t, path, `{"item": {"parameters": {"weight": {"type": "decimal"}}}}`)
		_, err := New(Options{Path: path}).Load(context.Background())
		require.ErrorIs(t, err, schema.ErrInvalidShape)
	})
}

func TestLoad_FetchUsesFreshCache(t *testing.T) {
	// --- Arrange ---
	srv, hits := schemaServer(t, okStatus(), remoteSchema)
	clk := newClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	opts := Options{URL: srv.URL, CacheDir: t.TempDir(), TTL: time.Hour, Now: clk.Now}

	// --- Act ---
	first, err := New(opts).Load(context.Background())
	require.NoError(t, err)
	clk.advance(30 * time.Minute)
	second, err := New(opts).Load(context.Background())
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, int32(1), hits.Load(), "the second load must be served from the cache")
	assert.Equal(t, srv.URL, first.Source())
	assert.Contains(t, second.Source(), "(cached)")
	assert.Equal(t, first.Version(), second.Version())
}

func TestLoad_FetchLogsCarryURL(t *testing.T) {
	// --- Arrange ---
	srv, _ := schemaServer(t, okStatus(), remoteSchema)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// --- Act ---
	_, err := New(Options{URL: srv.URL, CacheDir: t.TempDir()}).Load(ctx)

	// --- Assert ---
	require.NoError(t, err)
	var fetched []string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Schema fetched.") || strings.Contains(line, "Fetching schema.") {
			fetched = append(fetched, line)
		}
	}
	require.Len(t, fetched, 2)
	for _, line := range fetched {
		assert.Contains(t, line, "url="+srv.URL)
	}
}

func TestLoad_ExpiredCacheIsRefetched(t *testing.T) {
	srv, hits := schemaServer(t, okStatus(), remoteSchema)
	clk := newClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	opts := Options{URL: srv.URL, CacheDir: t.TempDir(), TTL: time.Hour, Now: clk.Now}

	_, err := New(opts).Load(context.Background())
	require.NoError(t, err)
	clk.advance(2 * time.Hour)
	snap, err := New(opts).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, srv.URL, snap.Source())
}

func TestLoad_StaleCacheWhenFetchFails(t *testing.T) {
	// --- Arrange ---
	status := okStatus()
	srv, _ := schemaServer(t, status, remoteSchema)
	clk := newClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	opts := Options{URL: srv.URL, CacheDir: t.TempDir(), TTL: time.Hour, Now: clk.Now}
	fetched, err := New(opts).Load(context.Background())
	require.NoError(t, err)

	status.Store(http.StatusInternalServerError)
	clk.advance(48 * time.Hour)

	// --- Act ---
	snap, err := New(opts).Load(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, snap.Source(), "(cached)")
	assert.Equal(t, fetched.Version(), snap.Version())
}

func TestLoad_BundledWhenNothingElseWorks(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusBadGateway},
		{name: "malformed document", status: http.StatusOK, body: `{"item": [`},
		{name: "reserved kind", status: http.StatusOK, body: `{"#document": {}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var status atomic.Int32
			status.Store(int32(tc.status))
			srv, hits := schemaServer(t, &status, tc.body)
			cacheDir := t.TempDir()

			snap, err := New(Options{URL: srv.URL, CacheDir: cacheDir}).Load(context.Background())

			require.NoError(t, err)
			assert.Same(t, schema.Default(), snap)
			assert.Equal(t, int32(1), hits.Load())
			entries, err := os.ReadDir(cacheDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "a failed fetch must not be cached")
		})
	}
}

func TestLoad_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	snap, err := New(Options{URL: url}).Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, schema.Default(), snap)
}

func TestCache_CorruptEntryIsIgnored(t *testing.T) {
	srv, hits := schemaServer(t, okStatus(), remoteSchema)
	opts := Options{URL: srv.URL, CacheDir: t.TempDir()}
	p := New(opts)
	writeFile(t, p.cachePath(), "\xff\x00garbage")

	snap, err := p.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, srv.URL, snap.Source())

	entry, err := p.readCache()
	require.NoError(t, err, "the corrupt entry is overwritten by the fetched document")
	assert.Equal(t, srv.URL, entry.URL)
	assert.Equal(t, snap.Version(), entry.Version)
}

func TestCache_KeyedByURL(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{URL: "https://a.example/schema.json", CacheDir: dir})
	b := New(Options{URL: "https://b.example/schema.json", CacheDir: dir})

	assert.NotEqual(t, a.cachePath(), b.cachePath())
	assert.True(t, strings.HasSuffix(a.cachePath(), ".cbor"))
	assert.Empty(t, New(Options{URL: "https://a.example"}).cachePath())
}

func TestWatch_RequiresLocalPath(t *testing.T) {
	err := New(Options{URL: "https://example.org"}).Watch(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotWatchable)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	for _, name := range []string{"scriptBlocks.json", "blocks.txt"} {
		t.Run(name, func(t *testing.T) {
			// --- Arrange ---
			path := filepath.Join(t.TempDir(), name)
			writeFile(t, path, remoteSchema)
			p := New(Options{Path: path})
			_, err := p.Load(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			changed := make(chan *schema.Snapshot, 16)
			go func() {
				done <- p.Watch(ctx, func(s *schema.Snapshot) { changed <- s })
			}()

			// --- Act ---
			// The watcher may not be registered yet, so keep saving until it notices.
			require.Eventually(t, func() bool {
				if p.Current().IsKnown("vehicle") {
					return true
				}
				_ = os.WriteFile(path, []byte(updatedSchema), 0o600)
				return false
			}, 10*time.Second, 500*time.Millisecond)

			// --- Assert ---
			snap := <-changed
			assert.True(t, snap.IsKnown("vehicle"))

			cancel()
			require.NoError(t, <-done)
		})
	}
}

func TestWatch_Relevant(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "blocks.txt")
	writeFile(t, file, remoteSchema)

	testCases := []struct {
		name  string
		path  string
		event fsnotify.Event
		want  bool
	}{
		{name: "schema file of any extension", path: file, event: fsnotify.Event{Name: file, Op: fsnotify.Write}, want: true},
		{name: "sibling of schema file", path: file, event: fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}},
		{name: "block file in directory", path: dir, event: fsnotify.Event{Name: filepath.Join(dir, "item.json"), Op: fsnotify.Create}, want: true},
		{name: "non-block file in directory", path: dir, event: fsnotify.Event{Name: filepath.Join(dir, "notes.md"), Op: fsnotify.Write}},
		{name: "permission change", path: file, event: fsnotify.Event{Name: file, Op: fsnotify.Chmod}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(Options{Path: tc.path})
			assert.Equal(t, tc.want, p.relevant(tc.event))
		})
	}
}

func TestWatch_BrokenReloadKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptBlocks.json")
	writeFile(t, path, remoteSchema)
	p := New(Options{Path: path})
	before, err := p.Load(context.Background())
	require.NoError(t, err)

	writeFile(t, path, `{"item": [`)
	_, err = p.Load(context.Background())

	require.Error(t, err)
	assert.Same(t, before, p.Current())
}
