package provider

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"golang.org/x/crypto/blake2b"
)

// cacheEntry is the on-disk record of one downloaded schema document.
type cacheEntry struct {
	URL       string    `cbor:"1,keyasint"`
	FetchedAt time.Time `cbor:"2,keyasint"`
	Version   string    `cbor:"3,keyasint"`
	Document  []byte    `cbor:"4,keyasint"`
}

func (e *cacheEntry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

func (e *cacheEntry) snapshot() (*schema.Snapshot, error) {
	return schema.Decode(e.Document, e.URL+" (cached)")
}

// cachePath returns the cache file of the configured URL, or "" when
// caching is off.
func (p *Provider) cachePath() string {
	if p.opts.CacheDir == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(p.opts.URL))
	return filepath.Join(p.opts.CacheDir, "schema-"+hex.EncodeToString(sum[:8])+".cbor")
}

func (p *Provider) readCache() (*cacheEntry, error) {
	path := p.cachePath()
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry cacheEntry
	if err := cbor.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", path, err)
	}
	if entry.URL != p.opts.URL {
		return nil, errors.New("cache entry belongs to another url")
	}
	return &entry, nil
}

func (p *Provider) writeCache(document []byte, version string) error {
	path := p.cachePath()
	if path == "" {
		return nil
	}
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(cacheEntry{
		URL:       p.opts.URL,
		FetchedAt: p.opts.Now().UTC(),
		Version:   version,
		Document:  document,
	})
	if err != nil {
		return fmt.Errorf("CBOR encoding failed: %w", err)
	}
	if err := os.MkdirAll(p.opts.CacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write through a temporary file so readers never see a partial entry.
	tmp, err := os.CreateTemp(p.opts.CacheDir, ".schema-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
