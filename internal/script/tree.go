// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the block arena and the queries consumers run against it.

package script

import (
	"slices"
	"strings"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// BlockID indexes a block in its Tree.
type BlockID int

const (
	// RootID is the id of the document root.
	RootID BlockID = 0
	// NoBlock is the parent id of the root.
	NoBlock BlockID = -1
)

// Block is a brace-delimited node of a script document.
type Block struct {
	ID       BlockID
	Parent   BlockID
	Children []BlockID
	Variant  Variant

	// Kind is the effective kind. For folded identifiers it is the composite
	// "component FluidContainer"; OriginalKind then holds "component".
	Kind         string
	OriginalKind string
	// Keyword is the header keyword as written ("template" for templates).
	Keyword       string
	Identifier    string
	HasIdentifier bool

	// Start is just past the opening '{' and End just past the matching
	// '}'. HeaderStart is the offset of Keyword.
	Start       int
	End         int
	HeaderStart int

	Parameters []*Parameter
	Entries    []*InputsEntry

	IsTemplate bool
	// Known is true when Kind is defined by the schema. It is false for the
	// document root.
	Known bool
}

// IsRoot reports whether b is the document root.
func (b *Block) IsRoot() bool { return b.Variant == VariantDocument }

// IsKind reports whether the block is of the given kind. Component blocks
// compare against the kind written in the header, so a folded
// "component FluidContainer" still is a "component".
func (b *Block) IsKind(kind string) bool {
	if b.Variant.behavior().matchesOriginal && b.OriginalKind != "" {
		return b.OriginalKind == kind
	}
	return b.Kind == kind
}

// Range returns the block span.
func (b *Block) Range() diag.Range { return diag.Range{Start: b.Start, End: b.End} }

// KeywordRange returns the span of the header keyword.
func (b *Block) KeywordRange() diag.Range {
	return diag.Range{Start: b.HeaderStart, End: b.HeaderStart + len(b.Keyword)}
}

// Tree is the result of a parse.
type Tree struct {
	Blocks []*Block

	doc         *document.Document
	snap        *schema.Snapshot
	diagnostics []diag.Diagnostic
}

// Root returns the document root.
func (t *Tree) Root() *Block { return t.Blocks[RootID] }

// Block returns the block with the given id, or nil.
func (t *Tree) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(t.Blocks) {
		return nil
	}
	return t.Blocks[id]
}

// Parent returns the parent of id, or nil for the root.
func (t *Tree) Parent(id BlockID) *Block {
	b := t.Block(id)
	if b == nil {
		return nil
	}
	return t.Block(b.Parent)
}

// Document returns the parsed document.
func (t *Tree) Document() *document.Document { return t.doc }

// Schema returns the snapshot the tree was validated against.
func (t *Tree) Schema() *schema.Snapshot { return t.snap }

// Diagnostics returns a copy of the diagnostics reported during the parse,
// in report order.
func (t *Tree) Diagnostics() []diag.Diagnostic { return slices.Clone(t.diagnostics) }

// BlockAt returns the innermost block whose header or body contains offset.
// The root is returned when no block does, and nil when offset lies outside
// the document.
func (t *Tree) BlockAt(offset int) *Block {
	root := t.Root()
	if offset < root.Start || offset >= root.End {
		return nil
	}
	cur := root
	for {
		next := (*Block)(nil)
		for _, id := range cur.Children {
			c := t.Blocks[id]
			if offset >= c.HeaderStart && offset < c.End {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// OwnsOffset reports whether offset lies in the body of id and outside all
// of its children.
func (t *Tree) OwnsOffset(id BlockID, offset int) bool {
	b := t.Block(id)
	if b == nil || offset < b.Start || offset >= b.End {
		return false
	}
	for _, cid := range b.Children {
		c := t.Blocks[cid]
		if offset >= c.Start && offset < c.End {
			return false
		}
	}
	return true
}

// Path returns the kinds from the outermost block down to id. The root is
// not part of the path.
func (t *Tree) Path(id BlockID) []string {
	var path []string
	for b := t.Block(id); b != nil && !b.IsRoot(); b = t.Block(b.Parent) {
		path = append(path, b.Kind)
	}
	slices.Reverse(path)
	return path
}

// PathString renders Path joined with arrows.
func (t *Tree) PathString(id BlockID) string {
	return strings.Join(t.Path(id), " → ")
}

func (t *Tree) definition(id BlockID) (*schema.BlockDefinition, bool) {
	b := t.Block(id)
	if b == nil || !b.Known {
		return nil, false
	}
	return t.snap.Lookup(b.Kind)
}

// RequiredChildren lists the child kinds block id must contain.
func (t *Tree) RequiredChildren(id BlockID) []string {
	def, ok := t.definition(id)
	if !ok {
		return nil
	}
	return slices.Clone(def.RequiredChildren)
}

// RequiredParameters lists the parameters block id must set.
func (t *Tree) RequiredParameters(id BlockID) []*schema.ParameterDefinition {
	def, ok := t.definition(id)
	if !ok {
		return nil
	}
	return def.RequiredParameters()
}

// Parameter returns the first parameter of block id named name.
func (t *Tree) Parameter(id BlockID, name string) (*Parameter, bool) {
	b := t.Block(id)
	if b == nil {
		return nil, false
	}
	return findParameter(b.Parameters, name)
}

// AcceptsParameter reports whether block id may carry a parameter named name.
func (t *Tree) AcceptsParameter(id BlockID, name string) bool {
	b := t.Block(id)
	if b == nil || !b.Known {
		return false
	}
	if b.Variant.behavior().anyParameter {
		return true
	}
	return t.snap.AcceptsParameter(b.Kind, name)
}

// BlocksOfKind returns every block matching kind in document order.
func (t *Tree) BlocksOfKind(kind string) []*Block {
	var out []*Block
	t.Walk(func(b *Block) bool {
		if b.IsKind(kind) || b.Kind == kind {
			out = append(out, b)
		}
		return true
	})
	return out
}

// Walk visits the blocks depth-first in document order, starting with the
// root. Returning false from fn skips the children of that block.
func (t *Tree) Walk(fn func(*Block) bool) {
	var visit func(*Block)
	visit = func(b *Block) {
		if !fn(b) {
			return
		}
		for _, id := range b.Children {
			visit(t.Blocks[id])
		}
	}
	visit(t.Root())
}

func findParameter(params []*Parameter, name string) (*Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
