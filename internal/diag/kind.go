package diag

import "slices"

// Kind identifies a class of document defect. The set is closed: every
// diagnostic produced by the parser carries one of the constants below.
type Kind string

const (
	// KindUnmatchedBrace indicates a block header whose '{' is never closed.
	KindUnmatchedBrace Kind = "unmatched-brace"
	// KindMissingComma indicates a parameter without a trailing comma.
	KindMissingComma Kind = "missing-comma"
	// KindInvalidComma indicates trailing text other than a single comma.
	KindInvalidComma Kind = "invalid-comma"
	// KindMissingValue indicates an empty parameter value or an empty list element.
	KindMissingValue Kind = "missing-value"

	// KindUnknownBlock indicates a block kind absent from the schema.
	KindUnknownBlock Kind = "unknown-block"
	// KindUnknownParameter indicates a parameter name absent from the block definition.
	KindUnknownParameter Kind = "unknown-parameter"

	// KindMissingParent indicates a top-level block that must be nested.
	KindMissingParent Kind = "missing-parent"
	// KindHasParent indicates a nested block that must be declared at the top level.
	KindHasParent Kind = "has-parent"
	// KindWrongParent indicates a block nested in a parent it does not accept.
	KindWrongParent Kind = "wrong-parent"
	// KindMissingChild indicates a block lacking one of its required child blocks.
	KindMissingChild Kind = "missing-child"

	// KindMissingID indicates a block that requires an identifier.
	KindMissingID Kind = "missing-id"
	// KindHasID indicates an identifier on a block that never takes one.
	KindHasID Kind = "has-id"
	// KindInvalidID indicates an identifier outside the allowed set.
	KindInvalidID Kind = "invalid-id"
	// KindHasIDInParent indicates an identifier forbidden under the current parent.
	KindHasIDInParent Kind = "has-id-in-parent"

	// KindMissingParameter indicates a required parameter that is not set.
	KindMissingParameter Kind = "missing-parameter"
	// KindDuplicateParameter indicates a parameter set more than once.
	KindDuplicateParameter Kind = "duplicate-parameter"
	// KindDeprecatedParameter indicates a deprecated parameter.
	KindDeprecatedParameter Kind = "deprecated-parameter"
	// KindInvalidParameterValue indicates a value outside the parameter's allowed set.
	KindInvalidParameterValue Kind = "invalid-parameter-value"

	// KindInvalidAmount indicates a negative or non-numeric entry amount.
	KindInvalidAmount Kind = "invalid-amount"
	// KindIntegerAmount indicates a fractional amount on an item entry.
	KindIntegerAmount Kind = "integer-amount"
	// KindDuplicateProperty indicates a sub-property repeated within one entry.
	KindDuplicateProperty Kind = "duplicate-property"
	// KindMissingOneOfProperty indicates none of the one-of properties resolved.
	KindMissingOneOfProperty Kind = "missing-oneof-property"
	// KindInvalidPropertyValue indicates a sub-property value outside its allowed set.
	KindInvalidPropertyValue Kind = "invalid-property-value"
	// KindAllWithOthers indicates '*' combined with other item list elements.
	KindAllWithOthers Kind = "all-with-others"
	// KindSpacesInItem indicates whitespace inside an item identifier.
	KindSpacesInItem Kind = "spaces-in-item"
	// KindDotsInItem indicates more than one '.' in an item identifier.
	KindDotsInItem Kind = "dots-in-item"
	// KindMissingModule indicates an item identifier without a module prefix.
	KindMissingModule Kind = "missing-module"
)

var templates = map[Kind]string{
	KindUnmatchedBrace: "Missing closing brace '}' for '{block}' block.",
	KindMissingComma:   "Missing trailing comma.",
	KindInvalidComma:   "Expected a single trailing comma, found '{comma}'.",
	KindMissingValue:   "'{parameter}' is missing a value.",

	KindUnknownBlock:     "'{block}' is not a known script block.",
	KindUnknownParameter: "'{parameter}' is not a known parameter of '{block}' block.",

	KindMissingParent: "'{block}' block must be nested in one of: {parents}.",
	KindHasParent:     "'{block}' block must be declared at the top level.",
	KindWrongParent:   "'{block}' block cannot be nested in '{parent}'. Allowed parents: {parents}.",
	KindMissingChild:  "'{block}' block requires child blocks: {children}.",

	KindMissingID:     "'{block}' block requires an identifier.",
	KindHasID:         "'{block}' block does not take an identifier.",
	KindInvalidID:     "'{id}' is not a valid identifier for '{block}' block. Expected one of: {ids}.",
	KindHasIDInParent: "'{block}' block cannot take an identifier inside '{parent}' block. Identifiers are not allowed under: {parents}.",

	KindMissingParameter:      "'{block}' block is missing required parameters: {parameters}.",
	KindDuplicateParameter:    "'{parameter}' is set more than once in '{block}' block.",
	KindDeprecatedParameter:   "'{parameter}' is deprecated in '{block}' block.",
	KindInvalidParameterValue: "'{value}' is not a valid value for '{parameter}'. Expected one of: {values}.",

	KindInvalidAmount:        "'{amount}' is not a valid amount for '{entry}'.",
	KindIntegerAmount:        "'{entry}' amount '{amount}' should be a whole number.",
	KindDuplicateProperty:    "'{property}' is set more than once, the first occurrence is used.",
	KindMissingOneOfProperty: "'{entry}' requires at least one of: {properties}.",
	KindInvalidPropertyValue: "'{value}' is not a valid value for '{property}'. Expected one of: {values}.",
	KindAllWithOthers:        "'*' must be the only element of the item list.",
	KindSpacesInItem:         "Item '{value}' contains whitespace.",
	KindDotsInItem:           "Item '{value}' must contain a single '.' between module and name.",
	KindMissingModule:        "Item '{value}' is missing its module prefix, e.g. 'Base.{value}'.",
}

// Template returns the message template of k. Placeholders take the form
// {name} and are filled by Format.
func (k Kind) Template() string {
	if t, ok := templates[k]; ok {
		return t
	}
	return string(k)
}

// Kinds returns every known diagnostic kind in lexical order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// IsKnown reports whether k is part of the closed kind set.
func (k Kind) IsKnown() bool {
	_, ok := templates[k]
	return ok
}
