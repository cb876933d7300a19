// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrReservedKind is returned when a schema document defines DocumentKind.
	ErrReservedKind = errors.New("schema defines the reserved document kind")
	// ErrInvalidShape wraps JSON Schema violations of a schema document.
	ErrInvalidShape = errors.New("schema document has an invalid shape")
	// ErrBadReference is returned for a "#ref" that cannot be resolved.
	ErrBadReference = errors.New("unresolved parameter reference")
)

// ContractError signals a lookup of a block kind that was never validated as
// known. It is raised as a panic: it indicates a caller ordering bug, not a
// defect of the document being parsed.
type ContractError struct {
	Kind string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("schema: lookup of unknown block kind %q", e.Kind)
}
