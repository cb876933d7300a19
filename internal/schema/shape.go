// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed shape.json
var shapeJSON []byte

const shapeURL = "https://pzscripts.local/schema/shape.json"

var compileShape = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(shapeURL, bytes.NewReader(shapeJSON)); err != nil {
		return nil, fmt.Errorf("failed to add shape schema: %w", err)
	}
	return compiler.Compile(shapeURL)
})

// validateShape checks a decoded schema document against the embedded JSON
// Schema describing its layout.
func validateShape(doc any) error {
	shape, err := compileShape()
	if err != nil {
		return err
	}
	if err := shape.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return nil
}
