// Package pctl implements C7: the PCTL/reward-extended-PCTL engine that
// orchestrates bitset, sparsematrix, vecutil, graphanalysis, and minmax
// into answers for until, bounded-until, next/globally/eventually,
// cumulative/instantaneous/reachability reward, long-run average, and
// conditional-probability queries (spec.md §4.7).
//
// Grounded on minmax's own orchestration style (solve.go's thin
// technique dispatcher) and on graphanalysis's qualitative-then-
// quantitative two-phase shape: the until, reachability-reward,
// long-run-average and conditional operations first narrow the state
// space via C4 (a "maybe" set or MECs), then hand only that restriction
// to C6, exactly the "recovered locally vs. surfaced numerically" split
// spec.md §7 calls the error-handling bands.
package pctl

import "errors"

// ERROR PRIORITY matches model's documented convention: shape problems
// before formula-semantic problems before solver-convergence problems.
var (
	// ErrInvalidArgument marks a structurally invalid query: a negative
	// step bound, a state-set length mismatch, or a formula
	// shape this package does not special-case its own errors for
	// (most semantic validation lives in model and is surfaced via
	// model.Err*; this sentinel covers pctl-local shape checks only).
	ErrInvalidArgument = errors.New("pctl: invalid argument")
)
