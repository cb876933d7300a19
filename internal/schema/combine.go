// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Combine merges a directory of per-block JSON files into one schema
// document. Each file's stem is the block kind. File-level "version" and
// "$schema" keys are dropped, parameters are keyed by lower-case name and
// "#ref" parameters are resolved.
func Combine(fsys fs.FS) ([]byte, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list block files: %w", err)
	}

	blocks := make(map[string]any)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		var block map[string]any
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", e.Name(), err)
		}
		delete(block, "version")
		delete(block, "$schema")
		blocks[strings.TrimSuffix(e.Name(), ".json")] = block
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no block files found")
	}

	if err := validateShape(blocks); err != nil {
		return nil, err
	}
	if err := normalize(blocks); err != nil {
		return nil, err
	}
	return json.MarshalIndent(blocks, "", "  ")
}

// DecodeDir combines the block files of fsys and decodes the result.
func DecodeDir(fsys fs.FS, source string) (*Snapshot, error) {
	data, err := Combine(fsys)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", source, err)
	}
	return Decode(data, source)
}
