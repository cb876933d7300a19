// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file resolves and validates ordinary `name = value,` parameters.

package script

import (
	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/scanner"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Parameter is one `name = value,` assignment of a block.
type Parameter struct {
	Name  string
	Value string
	// Comma is the text directly after the value: "," when well formed, ""
	// when missing, or a run of several commas.
	Comma       string
	NameRange   diag.Range
	ValueRange  diag.Range
	IsDuplicate bool
}

// Typed converts the raw value with the type of def.
func (p *Parameter) Typed(def *schema.ParameterDefinition) (cty.Value, error) {
	return def.Convert(p.Value)
}

func (b *builder) resolveParameters(blk *Block) {
	var params []*Parameter
	for from := blk.Start; from < blk.End; {
		sp, ok := scanner.NextParameter(b.src, from, blk.End)
		if !ok {
			break
		}
		from = sp.End

		if !b.tree.OwnsOffset(blk.ID, sp.Name.Start) || !b.tree.OwnsOffset(blk.ID, sp.Value.End-1) {
			continue
		}
		p := &Parameter{
			Name:       sp.Name.Text(b.src),
			Value:      sp.Value.Text(b.src),
			Comma:      sp.Comma.Text(b.src),
			NameRange:  diag.Range{Start: sp.Name.Start, End: sp.Name.End},
			ValueRange: diag.Range{Start: sp.Value.Start, End: sp.Value.End},
		}
		if prev, ok := findParameter(params, p.Name); ok {
			prev.IsDuplicate = true
			p.IsDuplicate = true
		}
		params = append(params, p)
	}

	blk.Parameters = params
	for _, p := range params {
		b.checkParameter(blk, p)
	}
}

// checkParameter runs the parameter checks in order. Unknown and deprecated
// names are reported and checking continues; every later check stops at the
// first failure.
func (b *builder) checkParameter(blk *Block, p *Parameter) {
	def, known := b.snap.Parameter(blk.Kind, p.Name)
	if !known && !blk.Variant.behavior().anyParameter {
		d := diag.New(diag.KindUnknownParameter, diag.SeverityHint, p.NameRange,
			diag.Args{"parameter": p.Name, "block": blk.Kind})
		if s := b.snap.MustLookup(blk.Kind).SuggestParameter(p.Name); s != "" {
			d = d.WithDetail("Did you mean '" + s + "'?")
		}
		b.sink.Add(d)
	}
	if known && def.Deprecated {
		b.sink.Report(diag.KindDeprecatedParameter, diag.SeverityWarning, p.NameRange,
			diag.Args{"parameter": p.Name, "block": blk.Kind})
	}

	if p.IsDuplicate && !(known && def.AllowDuplicate) {
		b.sink.Report(diag.KindDuplicateParameter, diag.SeverityError, p.NameRange,
			diag.Args{"parameter": p.Name, "block": blk.Kind})
		return
	}
	if p.Value == "" && !(known && def.AllowEmpty) {
		b.report(diag.KindMissingValue, diag.SeverityError, p.ValueRange.Start, b.doc.LineEnd(p.ValueRange.Start),
			diag.Args{"parameter": p.Name})
		return
	}
	if p.Value != "" && known && !def.Accepts(p.Value) {
		b.sink.Report(diag.KindInvalidParameterValue, diag.SeverityError, p.ValueRange, diag.Args{
			"value":     p.Value,
			"parameter": p.Name,
			"values":    diag.Quote(def.AllowedStrings()),
		})
		return
	}
	switch p.Comma {
	case ",":
	case "":
		b.report(diag.KindMissingComma, diag.SeverityError, p.NameRange.Start, p.ValueRange.End, nil)
	default:
		b.report(diag.KindInvalidComma, diag.SeverityError, p.NameRange.Start, p.ValueRange.End+len(p.Comma),
			diag.Args{"comma": p.Comma})
	}
}
