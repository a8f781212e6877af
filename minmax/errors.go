// Package minmax implements C6: the MinMax fixed-point solver spec.md
// §4.6 describes — value iteration, policy iteration (delegating the
// per-policy linear solve to a LinearEquationSolverFactory), and an
// LP-encoded solve for the rare queries that need it — plus the two
// external-solver-factory implementations (gonumsolver.go, lpsolver.go)
// that make those techniques runnable without a caller-supplied backend.
//
// Grounded on matrix/impl_floydwarshall.go's fixed-loop-order iterative
// relaxation (value iteration here plays the same "apply an update rule
// sweep after sweep until the residual is small enough" role Dense
// Floyd-Warshall plays there) and on the teacher's sentinel-error +
// "ctx: %w" wrapping convention (matrix/errors.go).
package minmax

import "errors"

var (
	// ErrInvalidArgument marks structurally invalid input (mismatched
	// vector lengths, a non-trivially-grouped matrix handed to a solver
	// that requires one choice per state).
	ErrInvalidArgument = errors.New("minmax: invalid argument")

	// ErrInfeasible marks an LP whose constraints admit no feasible
	// point (phase 1 of the simplex solver finished with a positive
	// artificial-variable sum).
	ErrInfeasible = errors.New("minmax: linear program infeasible")
)
