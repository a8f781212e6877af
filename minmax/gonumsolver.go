package minmax

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"gonum.org/v1/gonum/mat"
)

// GonumSolverFactory implements model.LinearEquationSolverFactory via
// gonum.org/v1/gonum/mat's dense Gaussian-elimination solve, extending
// the pack's existing gonum dependency (luxfi-consensus's
// mathext/prng usage) from random-number generation into dense linear
// algebra. It is a float64-precision backend regardless of the
// matrix's numeric.Kind: values round-trip through Value.Float64() and
// numeric.FromFloat64, documented as the deliberate precision/ecosystem
// tradeoff for the common case (Rational exactness, when actually
// needed, is the caller's job to provide via a different factory).
type GonumSolverFactory[V numeric.Value] struct{}

// New builds a GonumSolver bound to a, which must already be in (I - A)
// form (see sparsematrix.Matrix.ConvertToEquationSystem) and trivially
// grouped (one row per state).
func (GonumSolverFactory[V]) New(a *sparsematrix.Matrix[V]) (model.LinearEquationSolver[V], error) {
	if !a.IsTriviallyGrouped() {
		return nil, fmt.Errorf("minmax: GonumSolverFactory.New: matrix is not trivially grouped: %w", ErrInvalidArgument)
	}
	return &GonumSolver[V]{a: a}, nil
}

// GonumSolver is a model.LinearEquationSolver bound to a fixed (I - A)
// coefficient matrix.
type GonumSolver[V numeric.Value] struct {
	a *sparsematrix.Matrix[V]
}

// Solve returns x solving A·x = b via mat.Dense's VecDense.SolveVec.
func (s *GonumSolver[V]) Solve(ctx context.Context, b []V) ([]V, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("minmax: GonumSolver.Solve: %w", model.ErrCancelled)
	}
	n := s.a.NumStates()
	if len(b) != n {
		return nil, fmt.Errorf("minmax: GonumSolver.Solve: len(b)=%d != %d: %w", len(b), n, ErrInvalidArgument)
	}

	dense := mat.NewDense(n, n, nil)
	for r := 0; r < n; r++ {
		for _, e := range s.a.Row(r) {
			dense.Set(r, e.Col, e.Val.Float64())
		}
	}
	bf := make([]float64, n)
	for i, v := range b {
		bf[i] = v.Float64()
	}
	bVec := mat.NewVecDense(n, bf)

	var xVec mat.VecDense
	if err := xVec.SolveVec(dense, bVec); err != nil {
		return nil, fmt.Errorf("minmax: GonumSolver.Solve: %w: %v", model.ErrBackendFailure, err)
	}

	kind := s.a.Kind()
	out := make([]V, n)
	for i := 0; i < n; i++ {
		out[i] = numeric.FromFloat64(kind, xVec.AtVec(i)).(V)
	}
	return out, nil
}

// Multiply computes A·x + add against the same coefficient matrix this
// solver was built from (the (I - A) form), the refinement hook
// model.LinearEquationSolver documents. Panics if len(x)/len(add)
// disagree with the matrix's shape: callers obtain x/add from this same
// solver's own Solve or from a vector of matching length by contract,
// so a mismatch here means the caller broke that contract rather than
// supplied ordinary bad input.
func (s *GonumSolver[V]) Multiply(x []V, add []V) []V {
	out, err := s.a.Multiply(x, add)
	if err != nil {
		panic(err)
	}
	return out
}
