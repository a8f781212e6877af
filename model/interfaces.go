package model

import (
	"context"

	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// LinearEquationSolver solves a single deterministic linear system
// (I - A)x = b, the shape policy iteration needs at each greedy step
// (spec.md §4.6). Factories obtained from a LinearEquationSolverFactory
// are assumed thread-compatible but not thread-safe (spec.md §5): the
// core uses each instance from one goroutine only.
type LinearEquationSolver[V numeric.Value] interface {
	// Solve returns x solving (I - A)x = b for the matrix this solver was
	// built from.
	Solve(ctx context.Context, b []V) ([]V, error)

	// Multiply computes A·x + add element-wise, used by value-iteration
	// style refinement of a candidate solution without resolving the
	// whole system.
	Multiply(x []V, add []V) []V
}

// LinearEquationSolverFactory constructs a LinearEquationSolver bound to
// a fixed deterministic substochastic matrix A. New takes the matrix
// already converted to I - A (sparsematrix.Matrix.ConvertToEquationSystem).
type LinearEquationSolverFactory[V numeric.Value] interface {
	New(a *sparsematrix.Matrix[V]) (LinearEquationSolver[V], error)
}

// MinMaxLinearEquationSolver is the C6 contract: find x satisfying
// x[s] = opt_{r in group s} (Σ_c A(r,c)·x[c] + b[r]).
type MinMaxLinearEquationSolver[V numeric.Value] interface {
	Solve(ctx context.Context, op OptimizationDirection, xInit []V, b []V) (MinMaxResult[V], error)
}

// MinMaxResult is the structured result of a MinMax solve (spec.md §4.6).
type MinMaxResult[V numeric.Value] struct {
	X         []V
	Scheduler Scheduler
	Iterations uint64
}

// MinMaxLinearEquationSolverFactory constructs a MinMaxLinearEquationSolver
// bound to a fixed row-grouped matrix A.
type MinMaxLinearEquationSolverFactory[V numeric.Value] interface {
	New(a *sparsematrix.Matrix[V], opts Options) (MinMaxLinearEquationSolver[V], error)
}

// LpConstraint is one row of an LP: Σ_j Coeffs[j]·x[Vars[j]] RelOp RHS.
type LpConstraint struct {
	Vars   []int
	Coeffs []float64
	RelOp  ComparisonType
	RHS    float64
}

// LpProblem is a thin, backend-agnostic LP encoding (spec.md §1: "LP and
// SMT solver backends... a thin abstract interface suffices").
type LpProblem struct {
	NumVars     int
	Minimize    bool
	Objective   []float64 // length NumVars
	Constraints []LpConstraint
	// LowerBound/UpperBound default to 0/+Inf per variable when nil.
	LowerBound, UpperBound []float64
}

// LpSolution is the result of a successful LP solve.
type LpSolution struct {
	X        []float64
	Objective float64
}

// LpSolver solves one LpProblem instance.
type LpSolver interface {
	Solve(ctx context.Context, p LpProblem) (LpSolution, error)
}

// LpSolverFactory constructs an LpSolver. The factory shape mirrors
// LinearEquationSolverFactory so callers can wire either backend through
// the same kind of dependency-injection point.
type LpSolverFactory interface {
	New() (LpSolver, error)
}

// TerminationCondition is an optional predicate checked after every
// value-iteration sweep (spec.md §4.6): if it reports true, the current
// iterate is returned regardless of residual.
type TerminationCondition[V numeric.Value] func(iteration uint64, x []V) bool

// Cancel is the cooperative-cancellation predicate spec.md §5 describes,
// checked between sweeps / between refinement steps. A context.Context
// is accepted instead in most entry points; Cancel is provided for
// callers that prefer the should_cancel() shape from spec.md verbatim.
type Cancel func() bool
