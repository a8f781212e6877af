// Package multiobj implements C8: the multi-objective weighted-sum /
// Pareto refinement driver (spec.md §4.8) built on top of eliminator
// (C5) and minmax (C6); it does not call pctl. A query names several
// probability or reward sub-objectives, each with its own
// OptimizationDirection and an optional threshold; the driver answers
// whether all thresholds are simultaneously achievable, what the
// extremal value of one objective is (the other objectives' thresholds
// are not applied in that mode), or approximates the Pareto frontier of
// the achievable value set.
//
// Grounded on pctl's own orchestration style for the weighted-sum
// checker (a single reachability-reward query per refinement step) and
// on eliminator.Eliminate for collapsing zero-weighted end components
// before that query runs, per spec.md §4.8's "uses C5 to eliminate
// zero-weighted ECs and C6 to solve". The polytope tagged-union and the
// refinement loop itself have no precedent anywhere in the retrieval
// pack (no convex-hull/halfspace-intersection code exists in lvlath or
// the other example repos); they are written from scratch in the
// teacher's documentation idiom, flagged in DESIGN.md as algorithmically
// ungrounded.
package multiobj

import "errors"

// ErrInvalidArgument marks a structurally invalid multi-objective query
// (an empty objective set, an optimizing-objective index out of range,
// an unknown query kind) or a CSV export of a result that is not
// two-dimensional.
var ErrInvalidArgument = errors.New("multiobj: invalid argument")
