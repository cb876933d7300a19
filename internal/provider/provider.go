package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// DefaultTTL is how long a cached download is considered fresh.
const DefaultTTL = 24 * time.Hour

// ErrNoSchema is returned when a configured local schema path holds no
// schema document.
var ErrNoSchema = errors.New("no schema found")

// Options configures where a Provider looks for a schema.
type Options struct {
	// Path is a schema JSON file or a directory of per-block files. When
	// set, it is the only source consulted.
	Path string
	// URL is fetched when no fresh cache entry exists.
	URL string
	// CacheDir holds downloaded schemas. Caching is off when empty.
	CacheDir string
	TTL      time.Duration

	Client *http.Client
	// Now is used for cache expiry. It defaults to time.Now.
	Now func() time.Time
}

// Provider publishes the current schema snapshot.
type Provider struct {
	opts    Options
	current atomic.Pointer[schema.Snapshot]
	// mu serializes loads so concurrent refreshes do not fetch twice.
	mu sync.Mutex
}

// New creates a provider. Until Load succeeds, Current returns the bundled
// schema.
func New(opts Options) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Client == nil {
		opts.Client = newHTTPClient(defaultFetchTimeout)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{opts: opts}
}

// Current returns the published snapshot.
func (p *Provider) Current() *schema.Snapshot {
	if s := p.current.Load(); s != nil {
		return s
	}
	return schema.Default()
}

// Load resolves a snapshot through the source chain and publishes it.
// Network and cache failures degrade to the next source; only a broken
// explicit Path is an error.
func (p *Provider) Load(ctx context.Context) (*schema.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap, err := p.resolve(ctx)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, snap)
	return snap, nil
}

func (p *Provider) publish(ctx context.Context, snap *schema.Snapshot) {
	logger := ctxlog.FromContext(ctx)
	prev := p.current.Swap(snap)
	if prev == nil || prev.Version() != snap.Version() {
		logger.Info("Schema loaded.", "source", snap.Source(), "version", short(snap.Version()), "blocks", snap.Len())
	} else {
		logger.Debug("Schema unchanged.", "source", snap.Source())
	}
}

func (p *Provider) resolve(ctx context.Context) (*schema.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)

	if p.opts.Path != "" {
		return loadLocal(p.opts.Path)
	}
	if p.opts.URL == "" {
		logger.Debug("No schema source configured, using bundled schema.")
		return schema.Default(), nil
	}

	cached, cacheErr := p.readCache()
	if cacheErr != nil && !errors.Is(cacheErr, os.ErrNotExist) {
		logger.Warn("Ignoring unreadable schema cache.", "error", cacheErr)
	}
	if cached != nil && cached.fresh(p.opts.Now(), p.opts.TTL) {
		if snap, err := cached.snapshot(); err == nil {
			logger.Debug("Using cached schema.", "fetched_at", cached.FetchedAt)
			return snap, nil
		}
	}

	snap, data, err := p.fetch(ctx)
	if err == nil {
		if err := p.writeCache(data, snap.Version()); err != nil {
			logger.Warn("Failed to cache schema.", "error", err)
		}
		return snap, nil
	}
	logger.Warn("Failed to fetch schema.", "url", p.opts.URL, "error", err)

	if cached != nil {
		if snap, err := cached.snapshot(); err == nil {
			logger.Warn("Using stale cached schema.", "fetched_at", cached.FetchedAt)
			return snap, nil
		}
	}
	logger.Warn("Falling back to bundled schema.")
	return schema.Default(), nil
}

// loadLocal decodes a schema file, or combines a directory of block files.
func loadLocal(path string) (*schema.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access schema %s: %w", path, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to list schema directory %s: %w", path, err)
		}
		if !hasJSON(entries) {
			return nil, fmt.Errorf("schema directory %s: %w", path, ErrNoSchema)
		}
		return schema.DecodeDir(os.DirFS(path), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("schema file %s: %w", path, ErrNoSchema)
	}
	return schema.Decode(data, path)
}

func hasJSON(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			return true
		}
	}
	return false
}

func short(version string) string {
	if len(version) > 12 {
		return version[:12]
	}
	return version
}
