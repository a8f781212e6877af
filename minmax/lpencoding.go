package minmax

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// LPMinMax encodes the MinMax fixed point x[s] = opt_r (Σ_c A(r,c)x[c] +
// b[r]) as the standard LP spec.md §1 calls for a "thin abstract
// interface" over: minimize Σx_s subject to x_s ≥ row value for every
// choice (direction Max — x is the smallest vector dominating every
// choice, which is exactly the least vector satisfying the Bellman
// equation with max), or maximize Σx_s subject to x_s ≤ row value for
// every choice (direction Min, the dual shape).
//
// This technique is float64-only: LpProblem's coefficients are plain
// float64, so the matrix's V values are read via Value.Float64() before
// encoding. A scheduler is not synthesized from an LP solve (the
// optimal basis does not single out one row per state the way a
// reduce-by-group pass does); opts.ProduceScheduler is ignored here.
func LPMinMax[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, b []V, opts model.Options, factory model.LpSolverFactory) (model.MinMaxResult[V], error) {
	n := trans.NumStates()
	numRows := trans.NumRows()
	if b != nil && len(b) != numRows {
		return model.MinMaxResult[V]{}, fmt.Errorf("minmax: LPMinMax: len(b)=%d != NumRows()=%d: %w", len(b), numRows, ErrInvalidArgument)
	}

	objective := make([]float64, n)
	for i := range objective {
		objective[i] = 1
	}
	minimize := dir == model.Max // Max direction: minimize sum x subject to x >= rows.

	var constraints []model.LpConstraint
	grp := trans.Grp()
	for s := 0; s < n; s++ {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			coeffs := make(map[int]float64)
			coeffs[s] += 1
			for _, e := range trans.Row(r) {
				coeffs[e.Col] -= e.Val.Float64()
			}
			vars := make([]int, 0, len(coeffs))
			vals := make([]float64, 0, len(coeffs))
			for v, c := range coeffs {
				if c == 0 {
					continue
				}
				vars = append(vars, v)
				vals = append(vals, c)
			}
			rhs := 0.0
			if b != nil {
				rhs = b[r].Float64()
			}
			relOp := model.GreaterEqual
			if dir == model.Min {
				relOp = model.LessEqual
			}
			constraints = append(constraints, model.LpConstraint{Vars: vars, Coeffs: vals, RelOp: relOp, RHS: rhs})
		}
	}

	lowerBound := make([]float64, n) // default 0: value queries this core issues are always nonnegative.
	problem := model.LpProblem{
		NumVars:     n,
		Minimize:    minimize,
		Objective:   objective,
		Constraints: constraints,
		LowerBound:  lowerBound,
	}

	solver, err := factory.New()
	if err != nil {
		return model.MinMaxResult[V]{}, err
	}
	sol, err := solver.Solve(ctx, problem)
	if err != nil {
		return model.MinMaxResult[V]{}, err
	}

	kind := trans.Kind()
	x := make([]V, n)
	for i, f := range sol.X {
		x[i] = numeric.FromFloat64(kind, f).(V)
	}
	return model.MinMaxResult[V]{X: x, Iterations: 1}, nil
}
