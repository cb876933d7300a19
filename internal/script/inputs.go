// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file resolves the entries of inputs and outputs blocks and checks
// their properties.

package script

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/specialistvlad/pzscripts/internal/diag"
	"github.com/specialistvlad/pzscripts/internal/scanner"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// InvalidAmount is recorded for amounts that could not be used.
const InvalidAmount = -1

// EntryKind tells item entries from fluid entries.
type EntryKind int

const (
	EntryItem EntryKind = iota + 1
	EntryFluid
)

func (k EntryKind) String() string {
	switch k {
	case EntryItem:
		return "item"
	case EntryFluid:
		return "fluid"
	default:
		return "unknown"
	}
}

// InputsEntry is one `item 1 [Base.Plank],` row.
type InputsEntry struct {
	// Name is the entry keyword as written: "item", "fluid", "-fluid"...
	Name string
	Kind EntryKind
	// Sign is the first sign before "fluid", or 0.
	Sign       byte
	Amount     float64
	AmountText string
	Values     string
	Comma      string

	NameRange   diag.Range
	AmountRange diag.Range
	ValuesRange diag.Range

	Properties map[string]*Property
}

// Property is the resolved value of one entry sub-property. Unmatched
// properties keep their default value and a zero Range.
type Property struct {
	Name  string
	Shape schema.PropertyShape
	// List holds array elements, trimmed. ListRanges holds their spans.
	List       []string
	ListRanges []diag.Range
	Flag       bool
	Text       string
	// Source is the text of the occurrence the value was taken from.
	Source  string
	Range   diag.Range
	Matched bool
}

// Empty reports whether the property resolved to nothing usable.
func (p *Property) Empty() bool {
	switch p.Shape {
	case schema.ShapeArray:
		return len(p.List) == 0
	case schema.ShapeBoolean:
		return !p.Flag
	default:
		return p.Text == ""
	}
}

type propertySpec struct {
	name  string
	shape schema.PropertyShape
	match scanner.Matcher
	// text is the default of string properties.
	text string
}

var itemProperties = []propertySpec{
	{name: "itemList", shape: schema.ShapeArray, match: scanner.LeadingBracket()},
	{name: "value", shape: schema.ShapeString, match: scanner.LeadingValue()},
	{name: "mode", shape: schema.ShapeString, match: scanner.Marker("mode:"), text: "destroy"},
	{name: "tags", shape: schema.ShapeArray, match: scanner.Bracketed("tags")},
	{name: "flags", shape: schema.ShapeArray, match: scanner.Bracketed("flags")},
	{name: "mappers", shape: schema.ShapeArray, match: scanner.Bracketed("mappers")},
	{name: "overlayMapper", shape: schema.ShapeBoolean, match: scanner.Word("overlayMapper")},
}

var fluidProperties = []propertySpec{
	{name: "fluidList", shape: schema.ShapeArray, match: scanner.LeadingBracket()},
	{name: "value", shape: schema.ShapeString, match: scanner.LeadingValue()},
	{name: "categories", shape: schema.ShapeArray, match: scanner.Bracketed("categories")},
	{name: "flags", shape: schema.ShapeArray, match: scanner.Bracketed("flags")},
	{name: "mode", shape: schema.ShapeString, match: scanner.Marker("mode:"), text: "anything"},
}

func propertySpecs(kind EntryKind) []propertySpec {
	if kind == EntryItem {
		return itemProperties
	}
	return fluidProperties
}

func (b *builder) resolveEntries(blk *Block) {
	for from := blk.Start; from < blk.End; {
		se, ok := scanner.NextEntry(b.src, from, blk.End)
		if !ok {
			return
		}
		from = se.End

		if !b.tree.OwnsOffset(blk.ID, se.Name.Start) || !b.tree.OwnsOffset(blk.ID, se.Values.End-1) {
			continue
		}
		e := &InputsEntry{
			Name:        se.Name.Text(b.src),
			AmountText:  se.Amount.Text(b.src),
			Values:      se.Values.Text(b.src),
			Comma:       se.Comma.Text(b.src),
			NameRange:   diag.Range{Start: se.Name.Start, End: se.Name.End},
			AmountRange: diag.Range{Start: se.Amount.Start, End: se.Amount.End},
			ValuesRange: diag.Range{Start: se.Values.Start, End: se.Values.End},
			Kind:        EntryFluid,
		}
		if e.Name == "item" {
			e.Kind = EntryItem
		} else if c := e.Name[0]; c == '+' || c == '-' {
			e.Sign = c
		}

		e.Amount = b.entryAmount(e)
		b.resolveProperties(e, se.Values)
		b.checkEntry(blk, e)
		blk.Entries = append(blk.Entries, e)
	}
}

// entryAmount parses the amount. Item amounts must be whole numbers, fluid
// amounts may be fractional; neither may be negative.
func (b *builder) entryAmount(e *InputsEntry) float64 {
	args := diag.Args{"amount": e.AmountText, "entry": e.Name}
	n, err := strconv.ParseFloat(e.AmountText, 64)
	if err != nil || n < 0 {
		b.sink.Report(diag.KindInvalidAmount, diag.SeverityError, e.AmountRange, args)
		return InvalidAmount
	}
	if e.Kind == EntryItem && math.Trunc(n) != n {
		b.sink.Report(diag.KindIntegerAmount, diag.SeverityWarning, e.AmountRange, args)
		return InvalidAmount
	}
	return n
}

// resolveProperties decodes the values text through the property registry.
// When a property occurs more than once the first occurrence wins and each
// later one is reported.
func (b *builder) resolveProperties(e *InputsEntry, values scanner.Span) {
	specs := propertySpecs(e.Kind)
	e.Properties = make(map[string]*Property, len(specs))
	for _, spec := range specs {
		prop := &Property{Name: spec.name, Shape: spec.shape, Text: spec.text}
		e.Properties[spec.name] = prop

		matches := scanner.FindAll(spec.match, b.src, values.Start, values.End)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches[1:] {
			b.sink.Report(diag.KindDuplicateProperty, diag.SeverityWarning,
				diag.Range{Start: m.Full.Start, End: m.Full.End}, diag.Args{"property": spec.name})
		}

		first := matches[0]
		prop.Matched = true
		prop.Source = first.Full.Text(b.src)
		prop.Range = diag.Range{Start: first.Full.Start, End: first.Full.End}
		switch spec.shape {
		case schema.ShapeArray:
			for _, el := range scanner.SplitList(b.src, first.Value) {
				prop.List = append(prop.List, el.Text(b.src))
				prop.ListRanges = append(prop.ListRanges, diag.Range{Start: el.Start, End: el.End})
			}
		case schema.ShapeBoolean:
			prop.Flag = !prop.Flag
		case schema.ShapeString:
			prop.Text = first.Value.Text(b.src)
		}
	}
}

func (b *builder) checkEntry(blk *Block, e *InputsEntry) {
	if group, ok := b.snap.MustLookup(blk.Kind).PropertyGroup(e.Name); ok {
		b.checkOneOf(e, group)
		b.checkPropertyValues(e, group)
	}
	if e.Kind == EntryItem {
		b.checkItemList(e.Properties["itemList"])
		if v := e.Properties["value"]; v.Matched {
			b.checkItem(v.Text, v.Range, false)
		}
	}
}

func (b *builder) checkOneOf(e *InputsEntry, group *schema.PropertyGroup) {
	if len(group.OneOf) == 0 {
		return
	}
	for _, name := range group.OneOf {
		if p, ok := e.Properties[name]; ok && !p.Empty() {
			return
		}
	}
	b.sink.Report(diag.KindMissingOneOfProperty, diag.SeverityError, e.ValuesRange, diag.Args{
		"entry":      e.Name,
		"properties": diag.Quote(group.OneOf),
	})
}

func (b *builder) checkPropertyValues(e *InputsEntry, group *schema.PropertyGroup) {
	for _, spec := range propertySpecs(e.Kind) {
		def, ok := group.Properties[spec.name]
		if !ok || len(def.AllowedValues) == 0 {
			continue
		}
		prop := e.Properties[spec.name]
		args := func(value string) diag.Args {
			return diag.Args{"value": value, "property": spec.name, "values": diag.Quote(def.AllowedValues)}
		}
		switch prop.Shape {
		case schema.ShapeArray:
			for i, el := range prop.List {
				if !slices.Contains(def.AllowedValues, el) {
					b.sink.Report(diag.KindInvalidPropertyValue, diag.SeverityError, prop.ListRanges[i], args(el))
				}
			}
		case schema.ShapeString:
			if !slices.Contains(def.AllowedValues, prop.Text) {
				rng := prop.Range
				if !prop.Matched {
					rng = e.ValuesRange
				}
				b.sink.Report(diag.KindInvalidPropertyValue, diag.SeverityError, rng, args(prop.Text))
			}
		}
	}
}

// checkItemList validates each item identifier independently and reports
// the first problem of each.
func (b *builder) checkItemList(prop *Property) {
	if prop == nil {
		return
	}
	for i, item := range prop.List {
		rng := prop.ListRanges[i]
		if strings.TrimSpace(item) == "" {
			b.sink.Report(diag.KindMissingValue, diag.SeverityError, b.separatorRange(rng), diag.Args{"parameter": prop.Name})
			continue
		}
		b.checkItem(item, rng, len(prop.List) > 1)
	}
}

// checkItem validates one item identifier. others is set when the
// identifier shares its list with other elements.
func (b *builder) checkItem(item string, rng diag.Range, others bool) {
	args := diag.Args{"value": item}
	switch {
	case item == "*":
		if others {
			b.sink.Report(diag.KindAllWithOthers, diag.SeverityError, rng, nil)
		}
	case strings.ContainsFunc(item, unicode.IsSpace):
		b.sink.Report(diag.KindSpacesInItem, diag.SeverityError, rng, args)
	case strings.Count(item, ".") > 1:
		b.sink.Report(diag.KindDotsInItem, diag.SeverityError, rng, args)
	case !strings.Contains(item, "."):
		b.sink.Report(diag.KindMissingModule, diag.SeverityError, rng, args)
	}
}

// separatorRange widens an empty list element onto the ';' next to it.
func (b *builder) separatorRange(rng diag.Range) diag.Range {
	if rng.Start != rng.End {
		return rng
	}
	if rng.End < len(b.src) && b.src[rng.End] == ';' {
		return diag.Range{Start: rng.End, End: rng.End + 1}
	}
	if rng.Start > 0 && b.src[rng.Start-1] == ';' {
		return diag.Range{Start: rng.Start - 1, End: rng.Start}
	}
	return rng
}
