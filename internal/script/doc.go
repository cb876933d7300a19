// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package script builds the block tree of a script document and validates it
// against a schema snapshot. Parse is a pure function of the document text
// and the snapshot: it never blocks, never logs and keeps no state between
// calls.
//
// # Core Concepts
//
//   - Tree: an arena of blocks indexed by BlockID. The document root is always
//     block 0 and spans the whole text; every other block records its parent
//     id and its children ids in document order.
//
//   - Block: one brace-delimited node. Its span runs from just after the
//     opening '{' to just past the matching '}', and it remembers the offset
//     of its header keyword so diagnostics can point at it.
//
//   - Variant: the closed set of block behaviours. Most blocks are Plain;
//     "component", "template", "itemMapper" and "inputs"/"outputs" change how
//     the identifier is read, which parameter names are legal or how the body
//     is tokenized.
//
//   - Parameter and InputsEntry: the contents of a block body. Ordinary
//     blocks hold `name = value,` parameters; inputs and outputs blocks hold
//     `item 1 [Base.Plank],` style entries decoded into named properties.
//
// Every defect found in the document is reported as a diag.Diagnostic on the
// returned tree. A panic only ever signals a programming error, such as a
// schema lookup of a kind that was never checked as known.
package script
