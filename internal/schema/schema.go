// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the block, parameter and property definitions and the
// Snapshot lookups used while validating a document.

package schema

import (
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// DocumentKind is the reserved kind of the document root. No schema may
// define it.
const DocumentKind = "#document"

// BlockDefinition holds the rules for a single block kind.
type BlockDefinition struct {
	Name             string
	Description      string
	ShouldHaveParent bool
	ValidParents     []string
	RequiredChildren []string
	ID               *IDRule
	// Parameters is keyed by lower-case parameter name.
	Parameters map[string]*ParameterDefinition
	// Properties is keyed by inputs entry name ("item", "fluid", ...).
	Properties map[string]*PropertyGroup
}

// IDRule describes the identifier a block may carry after its kind keyword.
type IDRule struct {
	// ForbiddenInParents lists parents under which the identifier must be absent.
	ForbiddenInParents []string
	AllowedValues      []string
	// BecomesKind folds a valid identifier into the block kind, so that
	// "component FluidContainer" is validated as its own kind.
	BecomesKind bool
}

// ParameterDefinition describes one `name = value,` parameter.
type ParameterDefinition struct {
	Name        string
	Description string
	// TypeName is the type as written in the schema: string, int, float,
	// boolean or array. Type is its cty equivalent.
	TypeName       string
	Type           cty.Type
	Required       bool
	AllowDuplicate bool
	AllowEmpty     bool
	Deprecated     bool
	AllowedValues  []cty.Value
	Default        cty.Value // cty.NilVal when the schema gives none
	ItemTypes      []string
}

// PropertyShape is the value shape of an inputs sub-property.
type PropertyShape string

const (
	ShapeArray   PropertyShape = "array"
	ShapeBoolean PropertyShape = "boolean"
	ShapeString  PropertyShape = "string"
)

// PropertyDefinition describes one inputs sub-property.
type PropertyDefinition struct {
	Name          string
	Description   string
	Shape         PropertyShape
	AllowedValues []string
}

// PropertyGroup holds the sub-properties of one inputs entry name.
type PropertyGroup struct {
	// OneOf names properties of which at least one must resolve to a
	// non-empty value.
	OneOf      []string
	Properties map[string]*PropertyDefinition
}

// CanHaveParent reports whether a block of this kind may be nested in parent.
// Blocks that do not need a parent are also legal under the document root.
func (d *BlockDefinition) CanHaveParent(parent string) bool {
	if parent == DocumentKind && !d.ShouldHaveParent {
		return true
	}
	return slices.Contains(d.ValidParents, parent)
}

// ShouldHaveID reports whether a block of this kind needs an identifier when
// nested in parent.
func (d *BlockDefinition) ShouldHaveID(parent string) bool {
	if d.ID == nil {
		return false
	}
	return !slices.Contains(d.ID.ForbiddenInParents, parent)
}

// Parameter looks a parameter up by name, ignoring case.
func (d *BlockDefinition) Parameter(name string) (*ParameterDefinition, bool) {
	p, ok := d.Parameters[strings.ToLower(name)]
	return p, ok
}

// RequiredParameters returns the required parameters ordered by name.
func (d *BlockDefinition) RequiredParameters() []*ParameterDefinition {
	var out []*ParameterDefinition
	for _, p := range d.Parameters {
		if p.Required {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *ParameterDefinition) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// PropertyGroup returns the property group for an inputs entry name. Signed
// fluid entries such as "-fluid" fall back to the "fluid" group.
func (d *BlockDefinition) PropertyGroup(entry string) (*PropertyGroup, bool) {
	if g, ok := d.Properties[entry]; ok {
		return g, true
	}
	if trimmed := strings.TrimLeft(entry, "+-"); trimmed != entry {
		g, ok := d.Properties[trimmed]
		return g, ok
	}
	return nil, false
}

// Snapshot is an immutable set of block definitions.
type Snapshot struct {
	blocks  map[string]*BlockDefinition
	kinds   []string
	version string
	source  string
}

// Version identifies the snapshot content. Two snapshots decoded from
// equivalent documents share a version.
func (s *Snapshot) Version() string { return s.version }

// Source describes where the snapshot was loaded from.
func (s *Snapshot) Source() string { return s.source }

// Len returns the number of block kinds.
func (s *Snapshot) Len() int { return len(s.blocks) }

// Kinds returns the known block kinds in lexical order.
func (s *Snapshot) Kinds() []string { return slices.Clone(s.kinds) }

// IsKnown reports whether kind is defined.
func (s *Snapshot) IsKnown(kind string) bool {
	_, ok := s.blocks[kind]
	return ok
}

// Lookup returns the definition of kind.
func (s *Snapshot) Lookup(kind string) (*BlockDefinition, bool) {
	d, ok := s.blocks[kind]
	return d, ok
}

// MustLookup returns the definition of kind and panics with a *ContractError
// when kind is unknown. Callers must check IsKnown first.
func (s *Snapshot) MustLookup(kind string) *BlockDefinition {
	d, ok := s.blocks[kind]
	if !ok {
		panic(&ContractError{Kind: kind})
	}
	return d
}

func (s *Snapshot) CanHaveParent(kind, parent string) bool {
	return s.MustLookup(kind).CanHaveParent(parent)
}

func (s *Snapshot) ShouldHaveID(kind, parent string) bool {
	return s.MustLookup(kind).ShouldHaveID(parent)
}

func (s *Snapshot) RequiredChildren(kind string) []string {
	return slices.Clone(s.MustLookup(kind).RequiredChildren)
}

func (s *Snapshot) RequiredParameters(kind string) []*ParameterDefinition {
	return s.MustLookup(kind).RequiredParameters()
}

func (s *Snapshot) Parameter(kind, name string) (*ParameterDefinition, bool) {
	return s.MustLookup(kind).Parameter(name)
}

// AcceptsParameter reports whether blocks of kind define a parameter name.
func (s *Snapshot) AcceptsParameter(kind, name string) bool {
	_, ok := s.Parameter(kind, name)
	return ok
}
