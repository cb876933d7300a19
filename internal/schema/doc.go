// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package schema provides the in-memory representation of the script block
// schema: which block kinds exist, how they nest, which identifiers they take
// and which parameters they accept.
//
// # Core Concepts
//
//   - Snapshot: an immutable, versioned set of block definitions. A parse
//     always runs against exactly one snapshot; refreshing the schema means
//     building a new snapshot, never mutating an existing one.
//   - BlockDefinition: the rules for one block kind (parents, required
//     children, identifier rule, parameters, inputs property groups).
//   - ParameterDefinition: type, flags and allowed values of one parameter.
//     Types, defaults and allowed values are carried as cty values so that
//     raw parameter text can be compared and converted consistently.
//   - PropertyGroup: the sub-properties an inputs/outputs entry may carry,
//     with an optional "one of" constraint.
//
// The schema JSON document is an external contract. Decode checks its shape
// against an embedded JSON Schema before building a snapshot; Combine merges
// a directory of per-block files into a single document.
package schema
