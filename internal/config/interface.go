package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration files at paths and merges them, in
	// order, over base. Paths that do not exist are skipped.
	Load(ctx context.Context, base *Model, paths ...string) (*Model, error)
}
