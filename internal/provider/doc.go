// Package provider acquires schema snapshots for the linter.
//
// A Provider resolves a snapshot from, in order of preference, an explicit
// local file or directory, a fresh on-disk cache entry, an HTTP fetch, a
// stale cache entry and finally the schema bundled in the binary. The
// current snapshot is published through an atomic pointer, so readers never
// block while a refresh or a file-watch reload swaps it.
package provider
