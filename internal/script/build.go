// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file discovers blocks and runs the block level checks: kind, identifier,
// parent and required children.

package script

import (
	"slices"
	"strings"
	"unicode"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/scanner"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

type builder struct {
	doc  *document.Document
	src  string
	snap *schema.Snapshot
	tree *Tree
	sink diag.Sink
}

// Parse builds the block tree of doc and validates it against snap.
func Parse(doc *document.Document, snap *schema.Snapshot) *Tree {
	b := &builder{
		doc:  doc,
		src:  doc.Text(),
		snap: snap,
		tree: &Tree{doc: doc, snap: snap},
	}
	root := &Block{
		ID:      RootID,
		Parent:  NoBlock,
		Variant: VariantDocument,
		Kind:    schema.DocumentKind,
		Start:   0,
		End:     len(b.src),
	}
	b.tree.Blocks = append(b.tree.Blocks, root)
	b.discover(root)
	b.tree.diagnostics = b.sink.Diagnostics()
	return b.tree
}

func (b *builder) report(kind diag.Kind, severity diag.Severity, start, end int, args diag.Args) {
	b.sink.Report(kind, severity, diag.Range{Start: start, End: end}, args)
}

// reportAt reports an error on the header keyword of blk.
func (b *builder) reportAt(blk *Block, kind diag.Kind, args diag.Args) {
	b.sink.Report(kind, diag.SeverityError, blk.KeywordRange(), args)
}

// discover finds the child blocks of parent in document order.
func (b *builder) discover(parent *Block) {
	for from := parent.Start; from < len(b.src); {
		h, ok := scanner.NextHeader(b.src, from)
		if !ok {
			return
		}
		if h.Kind.Start >= parent.End || h.Brace >= parent.End {
			return
		}
		closing, ok := scanner.MatchBrace(b.src, h.Brace)
		if !ok {
			b.report(diag.KindUnmatchedBrace, diag.SeverityError, h.Kind.Start, h.Kind.End,
				diag.Args{"block": h.Kind.Text(b.src)})
			return
		}

		keyword := h.Kind.Text(b.src)
		child := &Block{
			ID:          BlockID(len(b.tree.Blocks)),
			Parent:      parent.ID,
			Variant:     VariantOf(keyword),
			Kind:        keyword,
			Keyword:     keyword,
			Start:       h.Brace + 1,
			End:         closing + 1,
			HeaderStart: h.Kind.Start,
		}
		if !h.Name.Empty() {
			child.Identifier = h.Name.Text(b.src)
			child.HasIdentifier = true
		}
		b.tree.Blocks = append(b.tree.Blocks, child)
		parent.Children = append(parent.Children, child.ID)
		b.build(child, parent)

		from = child.End
		if from >= parent.End {
			return
		}
	}
}

// build validates blk, discovers its children and resolves its body.
func (b *builder) build(blk, parent *Block) {
	hooks := blk.Variant.behavior()
	if hooks.splitsName {
		blk.IsTemplate = true
		splitTemplateName(blk)
	}

	if !b.checkKind(blk) {
		return
	}
	if hooks.requiresID && !blk.HasIdentifier {
		b.reportAt(blk, diag.KindMissingID, diag.Args{"block": blk.Kind})
	} else if !b.checkID(blk, parent) {
		return
	}
	b.checkParent(blk, parent)

	b.discover(blk)
	b.checkChildren(blk)

	if hooks.entries {
		b.resolveEntries(blk)
	} else {
		b.resolveParameters(blk)
	}
	if !hooks.entries && !blk.IsTemplate {
		b.checkRequiredParameters(blk)
	}
}

// splitTemplateName turns `template item Foo` into kind "item" with
// identifier "Foo".
func splitTemplateName(blk *Block) {
	if !blk.HasIdentifier {
		return
	}
	kind, rest := blk.Identifier, ""
	if i := strings.IndexFunc(blk.Identifier, unicode.IsSpace); i >= 0 {
		kind, rest = blk.Identifier[:i], blk.Identifier[i:]
	}
	blk.Kind = kind
	blk.Identifier = strings.TrimSpace(rest)
	blk.HasIdentifier = blk.Identifier != ""
}

func (b *builder) checkKind(blk *Block) bool {
	if b.snap.IsKnown(blk.Kind) {
		blk.Known = true
		return true
	}
	b.reportUnknownKind(blk)
	return false
}

func (b *builder) reportUnknownKind(blk *Block) {
	d := diag.New(diag.KindUnknownBlock, diag.SeverityError, blk.KeywordRange(), diag.Args{"block": blk.Kind})
	if s := b.snap.SuggestKind(blk.Kind); s != "" {
		d = d.WithDetail("Did you mean '" + s + "'?")
	}
	b.sink.Add(d)
}

// checkID validates the identifier and folds it into the kind when the
// schema asks for it. It returns false when the folded kind is unknown.
func (b *builder) checkID(blk, parent *Block) bool {
	def := b.snap.MustLookup(blk.Kind)
	rule := def.ID
	if rule == nil {
		if blk.HasIdentifier {
			b.reportAt(blk, diag.KindHasID, diag.Args{"block": blk.Kind})
		}
		return true
	}

	required := def.ShouldHaveID(parent.Kind)
	switch {
	case !blk.HasIdentifier:
		if required {
			b.reportAt(blk, diag.KindMissingID, diag.Args{"block": blk.Kind})
		}
		return true
	case !required:
		b.reportAt(blk, diag.KindHasIDInParent, diag.Args{
			"block":   blk.Kind,
			"parent":  parent.Kind,
			"parents": diag.Quote(rule.ForbiddenInParents),
		})
		return true
	case len(rule.AllowedValues) > 0 && !slices.Contains(rule.AllowedValues, blk.Identifier):
		b.reportAt(blk, diag.KindInvalidID, diag.Args{
			"block": blk.Kind,
			"id":    blk.Identifier,
			"ids":   diag.Quote(rule.AllowedValues),
		})
		return true
	}

	if rule.BecomesKind {
		blk.OriginalKind = blk.Kind
		blk.Kind = blk.Kind + " " + blk.Identifier
		blk.Identifier, blk.HasIdentifier = "", false
		if !b.snap.IsKnown(blk.Kind) {
			blk.Known = false
			b.reportUnknownKind(blk)
			return false
		}
	}
	return true
}

func (b *builder) checkParent(blk, parent *Block) {
	def := b.snap.MustLookup(blk.Kind)
	if !def.ShouldHaveParent {
		if !parent.IsRoot() {
			b.reportAt(blk, diag.KindHasParent, diag.Args{"block": blk.Kind})
		}
		return
	}
	if parent.IsRoot() {
		b.reportAt(blk, diag.KindMissingParent, diag.Args{
			"block":   blk.Kind,
			"parents": diag.Quote(def.ValidParents),
		})
		return
	}
	if def.CanHaveParent(parent.Kind) || parent.OriginalKind != "" && def.CanHaveParent(parent.OriginalKind) {
		return
	}
	b.reportAt(blk, diag.KindWrongParent, diag.Args{
		"block":   blk.Kind,
		"parent":  parent.Kind,
		"parents": diag.Quote(def.ValidParents),
	})
}

func (b *builder) checkChildren(blk *Block) {
	def := b.snap.MustLookup(blk.Kind)
	var missing []string
	for _, need := range def.RequiredChildren {
		found := false
		for _, id := range blk.Children {
			c := b.tree.Blocks[id]
			if c.Kind == need || c.OriginalKind == need {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, need)
		}
	}
	if len(missing) > 0 {
		b.reportAt(blk, diag.KindMissingChild, diag.Args{
			"block":    blk.Kind,
			"children": diag.Quote(missing),
		})
	}
}

func (b *builder) checkRequiredParameters(blk *Block) {
	var missing []string
	for _, p := range b.snap.RequiredParameters(blk.Kind) {
		found := slices.ContainsFunc(blk.Parameters, func(have *Parameter) bool {
			return strings.EqualFold(have.Name, p.Name)
		})
		if !found {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		b.reportAt(blk, diag.KindMissingParameter, diag.Args{
			"block":      blk.Kind,
			"parameters": diag.Quote(missing),
		})
	}
}
