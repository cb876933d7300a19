// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package script

// Variant selects the construction behaviour of a block.
type Variant int

const (
	VariantPlain Variant = iota
	VariantComponent
	VariantTemplate
	VariantItemMapper
	VariantInputs
	VariantDocument
)

func (v Variant) String() string {
	switch v {
	case VariantPlain:
		return "plain"
	case VariantComponent:
		return "component"
	case VariantTemplate:
		return "template"
	case VariantItemMapper:
		return "itemMapper"
	case VariantInputs:
		return "inputs"
	case VariantDocument:
		return "document"
	default:
		return "unknown"
	}
}

// variants maps header keywords onto their variant. Keywords not listed are
// Plain.
var variants = map[string]Variant{
	"component":  VariantComponent,
	"template":   VariantTemplate,
	"itemMapper": VariantItemMapper,
	"inputs":     VariantInputs,
	"outputs":    VariantInputs,
}

// VariantOf returns the variant used for blocks introduced by keyword.
func VariantOf(keyword string) Variant {
	if v, ok := variants[keyword]; ok {
		return v
	}
	return VariantPlain
}

// behavior lists the hooks a variant overrides.
type behavior struct {
	// splitsName reads the first word of the header name as the kind and
	// the rest as the identifier.
	splitsName bool
	// requiresID reports a missing identifier unconditionally.
	requiresID bool
	// anyParameter accepts every parameter name.
	anyParameter bool
	// entries tokenizes the body as inputs entries.
	entries bool
	// matchesOriginal compares kinds against the kind written in the header.
	matchesOriginal bool
	// exempt skips every structural check.
	exempt bool
}

var behaviors = [...]behavior{
	VariantPlain:      {},
	VariantComponent:  {matchesOriginal: true},
	VariantTemplate:   {splitsName: true, requiresID: true},
	VariantItemMapper: {anyParameter: true},
	VariantInputs:     {entries: true},
	VariantDocument:   {exempt: true},
}

func (v Variant) behavior() behavior {
	if v < 0 || int(v) >= len(behaviors) {
		return behavior{}
	}
	return behaviors[v]
}
