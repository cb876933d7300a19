// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes a schema JSON document into a Snapshot.
//
// The document maps block kinds to block objects. Parameters may be given as
// an object keyed by name or as an array of named objects; either way they
// are re-keyed by lower-case name, and "#ref": "block/parameter" entries are
// replaced by a copy of the referenced parameter.

package schema

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"golang.org/x/crypto/blake2b"
)

type rawBlock struct {
	Name             string                      `json:"name"`
	Description      string                      `json:"description"`
	ShouldHaveParent bool                        `json:"shouldHaveParent"`
	Parents          []string                    `json:"parents"`
	NeedsChildren    []string                    `json:"needsChildren"`
	ID               *rawID                      `json:"ID"`
	Parameters       map[string]rawParameter     `json:"parameters"`
	Properties       map[string]rawPropertyGroup `json:"properties"`
}

type rawID struct {
	ParentsWithout []string `json:"parentsWithout"`
	Values         []string `json:"values"`
	AsType         bool     `json:"asType"`
}

type rawParameter struct {
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Type             string            `json:"type"`
	Required         bool              `json:"required"`
	AllowedDuplicate bool              `json:"allowedDuplicate"`
	CanBeEmpty       bool              `json:"canBeEmpty"`
	Deprecated       bool              `json:"deprecated"`
	Values           []json.RawMessage `json:"values"`
	Default          json.RawMessage   `json:"default"`
	ItemTypes        []string          `json:"itemTypes"`
}

type rawPropertyGroup struct {
	OneOf      []string               `json:"oneOf"`
	Properties map[string]rawProperty `json:"properties"`
}

type rawProperty struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Values      []string `json:"values"`
}

// Decode builds a snapshot from a schema JSON document. source is recorded
// for diagnostics and logs only.
func Decode(data []byte, source string) (*Snapshot, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", source, err)
	}
	if err := validateShape(doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", source, err)
	}
	blocks := doc.(map[string]any)
	if _, ok := blocks[DocumentKind]; ok {
		return nil, fmt.Errorf("schema %s: %w %q", source, ErrReservedKind, DocumentKind)
	}
	if err := normalize(blocks); err != nil {
		return nil, fmt.Errorf("schema %s: %w", source, err)
	}

	canonical, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema %s: %w", source, err)
	}
	var raw map[string]rawBlock
	if err := json.Unmarshal(canonical, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", source, err)
	}

	snap := &Snapshot{
		blocks: make(map[string]*BlockDefinition, len(raw)),
		source: source,
	}
	sum := blake2b.Sum256(canonical)
	snap.version = hex.EncodeToString(sum[:])

	for kind, rb := range raw {
		def, err := decodeBlock(kind, rb)
		if err != nil {
			return nil, fmt.Errorf("schema %s: block %q: %w", source, kind, err)
		}
		snap.blocks[kind] = def
		snap.kinds = append(snap.kinds, kind)
	}
	slices.Sort(snap.kinds)
	return snap, nil
}

// MustDecode is like Decode but panics on error. It is meant for schemas
// embedded in the binary or in tests.
func MustDecode(data []byte, source string) *Snapshot {
	s, err := Decode(data, source)
	if err != nil {
		panic(err)
	}
	return s
}

func decodeBlock(kind string, rb rawBlock) (*BlockDefinition, error) {
	def := &BlockDefinition{
		Name:             kind,
		Description:      rb.Description,
		ShouldHaveParent: rb.ShouldHaveParent,
		ValidParents:     rb.Parents,
		RequiredChildren: rb.NeedsChildren,
		Parameters:       make(map[string]*ParameterDefinition, len(rb.Parameters)),
	}
	if rb.ID != nil {
		def.ID = &IDRule{
			ForbiddenInParents: rb.ID.ParentsWithout,
			AllowedValues:      rb.ID.Values,
			BecomesKind:        rb.ID.AsType,
		}
	}

	for key, rp := range rb.Parameters {
		p, err := decodeParameter(key, rp)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		def.Parameters[key] = p
	}

	if len(rb.Properties) > 0 {
		def.Properties = make(map[string]*PropertyGroup, len(rb.Properties))
		for entry, rg := range rb.Properties {
			g := &PropertyGroup{OneOf: rg.OneOf, Properties: make(map[string]*PropertyDefinition, len(rg.Properties))}
			for name, rp := range rg.Properties {
				g.Properties[name] = &PropertyDefinition{
					Name:          name,
					Description:   rp.Description,
					Shape:         PropertyShape(rp.Type),
					AllowedValues: rp.Values,
				}
			}
			def.Properties[entry] = g
		}
	}
	return def, nil
}

func decodeParameter(key string, rp rawParameter) (*ParameterDefinition, error) {
	ty, err := typeFromName(rp.Type)
	if err != nil {
		return nil, err
	}
	name := rp.Name
	if name == "" {
		name = key
	}
	p := &ParameterDefinition{
		Name:           name,
		Description:    rp.Description,
		TypeName:       rp.Type,
		Type:           ty,
		Required:       rp.Required,
		AllowDuplicate: rp.AllowedDuplicate,
		AllowEmpty:     rp.CanBeEmpty,
		Deprecated:     rp.Deprecated,
		ItemTypes:      rp.ItemTypes,
		Default:        cty.NilVal,
	}
	for _, rv := range rp.Values {
		v, err := decodeJSONValue(rv)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed value %s: %w", rv, err)
		}
		p.AllowedValues = append(p.AllowedValues, v)
	}
	if len(rp.Default) > 0 && string(rp.Default) != "null" {
		v, err := decodeJSONValue(rp.Default)
		if err != nil {
			return nil, fmt.Errorf("invalid default %s: %w", rp.Default, err)
		}
		p.Default = v
	}
	return p, nil
}

// normalize re-keys every block's parameters by lower-case name and resolves
// "#ref" parameters in place.
func normalize(blocks map[string]any) error {
	for kind, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			return fmt.Errorf("block %q is not an object", kind)
		}
		switch params := block["parameters"].(type) {
		case []any:
			keyed := make(map[string]any, len(params))
			for _, p := range params {
				pm, _ := p.(map[string]any)
				name, _ := pm["name"].(string)
				keyed[strings.ToLower(name)] = pm
			}
			block["parameters"] = keyed
		case map[string]any:
			keyed := make(map[string]any, len(params))
			for name, p := range params {
				keyed[strings.ToLower(name)] = p
			}
			block["parameters"] = keyed
		case nil:
			delete(block, "parameters")
		}
	}

	resolved := make(map[string]map[string]any)
	for _, kind := range slices.Sorted(maps.Keys(blocks)) {
		params, _ := blocks[kind].(map[string]any)["parameters"].(map[string]any)
		for _, key := range slices.Sorted(maps.Keys(params)) {
			p, err := resolveParameter(blocks, kind, key, resolved, nil)
			if err != nil {
				return err
			}
			params[key] = p
		}
	}
	return nil
}

func resolveParameter(blocks map[string]any, kind, key string, done map[string]map[string]any, chain []string) (map[string]any, error) {
	id := kind + "/" + key
	if p, ok := done[id]; ok {
		return p, nil
	}
	if slices.Contains(chain, id) {
		return nil, fmt.Errorf("%w: cycle through %s", ErrBadReference, strings.Join(append(chain, id), " -> "))
	}

	block, _ := blocks[kind].(map[string]any)
	params, _ := block["parameters"].(map[string]any)
	p, ok := params[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadReference, id)
	}

	ref, isRef := p["#ref"].(string)
	if !isRef {
		done[id] = p
		return p, nil
	}
	targetKind, targetParam, found := strings.Cut(ref, "/")
	if !found {
		return nil, fmt.Errorf("%w: %q in %s", ErrBadReference, ref, id)
	}
	target, err := resolveParameter(blocks, targetKind, strings.ToLower(targetParam), done, append(chain, id))
	if err != nil {
		return nil, err
	}
	copied := maps.Clone(target)
	done[id] = copied
	return copied, nil
}
