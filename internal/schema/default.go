// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	_ "embed"
	"sync"
)

//go:embed data/scriptBlocks.json
var defaultJSON []byte

// DefaultSource is the Source of the bundled snapshot.
const DefaultSource = "bundled"

var defaultSnapshot = sync.OnceValue(func() *Snapshot {
	return MustDecode(defaultJSON, DefaultSource)
})

// Default returns the schema bundled with the binary. It is the last
// fallback when no other schema source is usable.
func Default() *Snapshot {
	return defaultSnapshot()
}

// DefaultJSON returns a copy of the bundled schema document.
func DefaultJSON() []byte {
	return append([]byte(nil), defaultJSON...)
}
