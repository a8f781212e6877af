package minmax

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/probmc/mdpcore/vecutil"
)

// reduceOpFor maps the formula-level optimization direction onto
// vecutil's grouped-reduction operator.
func reduceOpFor(dir model.OptimizationDirection) vecutil.ReduceOp {
	if dir == model.Max {
		return vecutil.ReduceMax
	}
	return vecutil.ReduceMin
}

// ValueIteration approximates the least fixed point (for both Min and
// Max, starting from the zero vector unless xInit is given)
// of x[s] = opt_{r in group s} (Σ_c A(r,c)·x[c] + b[r]) by repeated
// Jacobi sweeps — trans.Multiply for the Σ_c A(r,c)·x[c] + b[r] half,
// vecutil.ReduceByGroup for the per-state opt half — stopping once two
// consecutive iterates agree within opts.Precision (vecutil.EqualModuloPrecision)
// or opts.MaxIterations sweeps are exhausted.
//
// Mirrors matrix/impl_floydwarshall.go's "fixed loop order, relax until
// no more improvement" shape: a single deterministic sweep per
// iteration, applied repeatedly instead of floydWarshallInPlace's fixed
// n sweeps, since a fixed-point solve has no a priori iteration count.
//
// xInit seeds the first sweep; pass nil to start from every state's
// additive identity. b is the per-choice additive term (reward vector,
// or the zero vector for a plain probability-reachability solve), length
// trans.NumRows().
func ValueIteration[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, xInit []V, b []V, opts model.Options) (model.MinMaxResult[V], error) {
	n := trans.NumStates()
	kind := trans.Kind()
	if b != nil && len(b) != trans.NumRows() {
		return model.MinMaxResult[V]{}, fmt.Errorf("minmax: ValueIteration: len(b)=%d != NumRows()=%d: %w", len(b), trans.NumRows(), ErrInvalidArgument)
	}
	x := make([]V, n)
	if xInit != nil {
		if len(xInit) != n {
			return model.MinMaxResult[V]{}, fmt.Errorf("minmax: ValueIteration: len(xInit)=%d != NumStates()=%d: %w", len(xInit), n, ErrInvalidArgument)
		}
		copy(x, xInit)
	} else {
		zero := numeric.ZeroOf(kind).(V)
		for i := range x {
			x[i] = zero
		}
	}

	grp := trans.Grp()
	op := reduceOpFor(dir)
	var choices []uint64
	if opts.ProduceScheduler {
		choices = make([]uint64, n)
	}

	var iter uint64
	for ; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return model.MinMaxResult[V]{}, fmt.Errorf("minmax: ValueIteration: %w", model.ErrCancelled)
		}
		rowVals, err := trans.Multiply(x, b)
		if err != nil {
			return model.MinMaxResult[V]{}, err
		}
		next := make([]V, n)
		vecutil.ReduceByGroup(rowVals, grp, op, next, choices)
		if vecutil.EqualModuloPrecision(x, next, opts.Precision, opts.Relative) {
			x = next
			iter++
			var sched model.Scheduler
			if opts.ProduceScheduler {
				sched = model.Scheduler(choices)
			}
			return model.MinMaxResult[V]{X: x, Scheduler: sched, Iterations: iter}, nil
		}
		x = next
	}

	lastFloat := make([]float64, n)
	for i, v := range x {
		lastFloat[i] = v.Float64()
	}
	return model.MinMaxResult[V]{}, &model.NotConvergedError{LastIterate: lastFloat, Iterations: iter}
}
