// SPDX-License-Identifier: MIT
// Package sparsematrix: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the
// package. All algorithms MUST return these sentinels and tests MUST
// check them via errors.Is.
package sparsematrix

import "errors"

// ERROR PRIORITY (documented convention): shape/index problems
// are surfaced before dimension-mismatch problems, which are surfaced
// before structural-invariant violations (row-group / stochasticity).
var (
	// ErrBadShape is returned when requested dimensions are invalid.
	ErrBadShape = errors.New("sparsematrix: invalid shape")

	// ErrOutOfRange indicates a row/column/group index outside bounds.
	ErrOutOfRange = errors.New("sparsematrix: index out of range")

	// ErrDimensionMismatch indicates incompatible vector/matrix lengths
	// in Multiply or a row-group mismatch in Submatrix.
	ErrDimensionMismatch = errors.New("sparsematrix: dimension mismatch")

	// ErrInvalidArgument marks a row-group/choice mask inconsistent with
	// the current grouping (a Submatrix state with no selected row), or
	// an operation that needs a trivially grouped matrix.
	ErrInvalidArgument = errors.New("sparsematrix: invalid argument")

	// ErrNotSubstochastic marks a row whose entries are negative or sum
	// to more than 1 + epsilon, caught by the strict builder.
	ErrNotSubstochastic = errors.New("sparsematrix: row is not substochastic")

	// ErrDeadlockState marks a state with an empty row group (grp[s] ==
	// grp[s+1]); spec.md §3 requires callers to self-loop deadlocks
	// before handing a Model to the core.
	ErrDeadlockState = errors.New("sparsematrix: deadlock state (empty row group)")
)
