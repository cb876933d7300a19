package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// ErrNotWatchable is returned by Watch when no local schema path is set.
var ErrNotWatchable = errors.New("schema source is not a local path")

// watchDelay coalesces the burst of events editors emit for a single save.
const watchDelay = 200 * time.Millisecond

// Watch reloads the local schema whenever it changes on disk, until ctx is
// cancelled. A reload that fails keeps the previous snapshot. onChange, if
// not nil, is called after each successful reload.
func (p *Provider) Watch(ctx context.Context, onChange func(*schema.Snapshot)) error {
	if p.opts.Path == "" {
		return ErrNotWatchable
	}
	// Reloads log under the watched path too.
	ctx = ctxlog.With(ctx, "path", p.opts.Path)
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watching the parent directory of a file survives editors that
	// replace the file on save.
	target := p.opts.Path
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		target = filepath.Dir(target)
	}
	if err := watcher.Add(target); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}
	logger.Info("Watching schema for changes.")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Schema watch stopped.")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !p.relevant(ev) {
				continue
			}
			logger.Debug("Schema change detected.", "event", ev.Op.String(), "name", ev.Name)
			if timer == nil {
				timer = time.NewTimer(watchDelay)
			} else {
				timer.Reset(watchDelay)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Schema watcher error.", "error", err)
		case <-fire:
			fire = nil
			snap, err := p.Load(ctx)
			if err != nil {
				logger.Error("Schema reload failed, keeping previous schema.", "error", err)
				continue
			}
			if onChange != nil {
				onChange(snap)
			}
		}
	}
}

func (p *Provider) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	if filepath.Clean(ev.Name) == filepath.Clean(p.opts.Path) {
		return true
	}
	// Directories hold one .json file per block.
	info, err := os.Stat(p.opts.Path)
	return err == nil && info.IsDir() && filepath.Ext(ev.Name) == ".json"
}
