// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file converts raw parameter text into typed cty values and compares it
// against a parameter's allowed values.

package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// typeFromName maps a schema type name onto its cty type.
func typeFromName(name string) (cty.Type, error) {
	switch name {
	case "":
		return cty.DynamicPseudoType, nil
	case "string":
		return cty.String, nil
	case "int", "float":
		return cty.Number, nil
	case "boolean":
		return cty.Bool, nil
	case "array":
		return cty.List(cty.String), nil
	default:
		return cty.DynamicPseudoType, fmt.Errorf("unknown parameter type %q", name)
	}
}

// decodeJSONValue decodes a JSON literal into a cty value of its implied type.
func decodeJSONValue(b []byte) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(b)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(b, ty)
}

// Accepts reports whether raw is one of the allowed values. Parameters
// without allowed values accept anything. Allowed numbers and booleans are
// compared after converting raw to their type, so "1.0" matches 1.
func (p *ParameterDefinition) Accepts(raw string) bool {
	if len(p.AllowedValues) == 0 {
		return true
	}
	for _, allowed := range p.AllowedValues {
		if matchesValue(raw, allowed) {
			return true
		}
	}
	return false
}

// AllowedStrings renders the allowed values for messages.
func (p *ParameterDefinition) AllowedStrings() []string {
	out := make([]string, len(p.AllowedValues))
	for i, v := range p.AllowedValues {
		out[i] = FormatValue(v)
	}
	return out
}

// Convert parses raw parameter text into a value of the parameter's type.
// Array values are split on ';'.
func (p *ParameterDefinition) Convert(raw string) (cty.Value, error) {
	switch p.TypeName {
	case "array":
		var elems []cty.Value
		for _, part := range strings.Split(raw, ";") {
			if part = strings.TrimSpace(part); part != "" {
				elems = append(elems, cty.StringVal(part))
			}
		}
		if len(elems) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		return cty.ListVal(elems), nil
	case "int":
		v, err := convert.Convert(cty.StringVal(raw), cty.Number)
		if err != nil {
			return cty.NilVal, err
		}
		if !v.AsBigFloat().IsInt() {
			return cty.NilVal, fmt.Errorf("%q is not a whole number", raw)
		}
		return v, nil
	case "":
		return cty.StringVal(raw), nil
	default:
		return convert.Convert(cty.StringVal(raw), p.Type)
	}
}

func matchesValue(raw string, allowed cty.Value) bool {
	if allowed.IsNull() || !allowed.IsKnown() {
		return false
	}
	ty := allowed.Type()
	if !ty.IsPrimitiveType() {
		return false
	}
	if ty == cty.String {
		return raw == allowed.AsString()
	}
	v, err := convert.Convert(cty.StringVal(raw), ty)
	if err != nil {
		return false
	}
	return v.Equals(allowed).True()
}

// FormatValue renders a cty value the way it would be written in a script.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch ty := v.Type(); {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case ty == cty.Bool:
		return strconv.FormatBool(v.True())
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			parts = append(parts, FormatValue(elem))
		}
		return strings.Join(parts, ";")
	default:
		b, err := ctyjson.Marshal(v, ty)
		if err != nil {
			return v.GoString()
		}
		return string(b)
	}
}
