package minmax

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/probmc/mdpcore/vecutil"
)

// PolicyIteration runs Howard's algorithm: starting from an arbitrary
// scheduler, alternately (a) solve the induced deterministic Markov
// chain exactly via factory, (b) improve the scheduler greedily against
// that exact solution, until no state's locally optimal choice changes.
//
// Converges in finitely many iterations on a finite MDP (each iteration
// either strictly improves some state's value or leaves the scheduler
// fixed, in which case it is already optimal), trading value iteration's
// per-sweep cheapness for per-iteration exactness — spec.md §4.6's
// second technique, used when policy stability rather than residual
// smallness is the convergence criterion callers want.
//
// xInit, if non-nil, is ignored beyond its length check: policy
// iteration's first sweep is seeded by a scheduler (row 0 of every
// group), not by a value vector, since Howard's algorithm needs a valid
// policy to evaluate before it has any iterate to refine.
func PolicyIteration[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, xInit []V, b []V, opts model.Options, factory model.LinearEquationSolverFactory[V]) (model.MinMaxResult[V], error) {
	n := trans.NumStates()
	numRows := trans.NumRows()
	kind := trans.Kind()
	if b != nil && len(b) != numRows {
		return model.MinMaxResult[V]{}, fmt.Errorf("minmax: PolicyIteration: len(b)=%d != NumRows()=%d: %w", len(b), numRows, ErrInvalidArgument)
	}
	if xInit != nil && len(xInit) != n {
		return model.MinMaxResult[V]{}, fmt.Errorf("minmax: PolicyIteration: len(xInit)=%d != NumStates()=%d: %w", len(xInit), n, ErrInvalidArgument)
	}

	grp := trans.Grp()
	op := reduceOpFor(dir)

	// Seed: the first row of every state's group.
	scheduler := make(model.Scheduler, n)
	fullStates := bitset.NewFull(n)

	var lastX []V
	var iter uint64
	for ; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return model.MinMaxResult[V]{}, fmt.Errorf("minmax: PolicyIteration: %w", model.ErrCancelled)
		}

		choiceMask := bitset.New(numRows)
		bSigma := make([]V, n)
		for s := 0; s < n; s++ {
			r := grp[s] + int(scheduler[s])
			choiceMask.Set(r)
			if b != nil {
				bSigma[s] = b[r]
			} else {
				bSigma[s] = numeric.ZeroOf(kind).(V)
			}
		}

		aSigma, err := trans.Submatrix(fullStates, choiceMask, false)
		if err != nil {
			return model.MinMaxResult[V]{}, err
		}
		if err := aSigma.ConvertToEquationSystem(); err != nil {
			return model.MinMaxResult[V]{}, err
		}
		solver, err := factory.New(aSigma)
		if err != nil {
			return model.MinMaxResult[V]{}, err
		}
		x, err := solver.Solve(ctx, bSigma)
		if err != nil {
			return model.MinMaxResult[V]{}, err
		}
		lastX = x

		rowVals, err := trans.Multiply(x, b)
		if err != nil {
			return model.MinMaxResult[V]{}, err
		}
		next := make([]V, n)
		nextChoices := make([]uint64, n)
		vecutil.ReduceByGroup(rowVals, grp, op, next, nextChoices)

		improved := false
		for s := 0; s < n; s++ {
			if nextChoices[s] != uint64(scheduler[s]) {
				improved = true
				break
			}
		}
		if !improved {
			iter++
			var sched model.Scheduler
			if opts.ProduceScheduler {
				sched = scheduler
			}
			return model.MinMaxResult[V]{X: x, Scheduler: sched, Iterations: iter}, nil
		}
		scheduler = model.Scheduler(nextChoices)
	}

	lastFloat := make([]float64, n)
	for i, v := range lastX {
		lastFloat[i] = v.Float64()
	}
	return model.MinMaxResult[V]{}, &model.NotConvergedError{LastIterate: lastFloat, Iterations: iter}
}
