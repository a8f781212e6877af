package pctl

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/graphanalysis"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/probmc/mdpcore/vecutil"
)

// BoundedUntilMulti answers P_dir(φ U^{≤k} ψ) for every k in an ascending
// bounds slice in a single pass: the maybe-set, submatrix and additive
// term are computed once, and the multiply-and-reduce loop of
// BoundedUntil runs straight through from 0 to the largest bound,
// snapshotting xSub at each requested bound along the way rather than
// restarting the sweep from scratch per bound — the bounded-until
// recursion at bound k is a strict prefix of the recursion at any bound
// k' > k, so the snapshots are exact, not approximate.
//
// This is a SUPPLEMENT beyond spec.md's single-bound BoundedUntil.
// original_source/SparseMdpPrctlHelper.cpp has no literal batched-bound
// entry point of its own (storm's CheckTask layer issues one bound at a
// time from the model-checking driver above this helper), but its
// computeBoundedUntilProbabilities is written around a running
// "subresult" vector passed to solver->repeatedMultiply specifically so
// that pattern generalizes directly to a multi-bound sweep; that is the
// shape this function follows.
//
// bounds must be sorted ascending; duplicate bounds are permitted and
// simply repeat the previous snapshot. No scheduler is synthesized, for
// the same reason BoundedUntil does not: the optimal policy for a
// step-bounded objective is non-stationary.
func BoundedUntilMulti[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, phi, psi *bitset.Set, bounds []uint64, opts model.Options) ([]model.CheckResult, error) {
	n := trans.NumStates()
	if phi.Len() != n || psi.Len() != n {
		return nil, fmt.Errorf("pctl: BoundedUntilMulti: phi/psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] < bounds[i-1] {
			return nil, fmt.Errorf("pctl: BoundedUntilMulti: bounds must be ascending: %w", ErrInvalidArgument)
		}
	}
	out := make([]model.CheckResult, len(bounds))
	if len(bounds) == 0 {
		return out, nil
	}

	kMax := bounds[len(bounds)-1]
	var reach *bitset.Set
	var err error
	if dir == model.Min {
		reach, err = graphanalysis.BoundedProbGreater0A(trans, phi, psi, kMax, graphanalysis.WithContext(ctx))
	} else {
		reach, err = graphanalysis.BoundedProbGreater0E(trans, phi, psi, kMax, graphanalysis.WithContext(ctx))
	}
	if err != nil {
		return nil, err
	}
	maybe := reach.Difference(psi)

	kind := trans.Kind()
	zero := numeric.ZeroOf(kind).(V)
	one := numeric.OneOf(kind).(V)

	snapshot := func() []V {
		x := make([]V, n)
		for i := range x {
			x[i] = zero
		}
		vecutil.SetValuesScalar(x, psi, one)
		return x
	}

	if maybe.IsEmpty() {
		base := toFloat64(snapshot())
		for i := range bounds {
			cp := make([]float64, len(base))
			copy(cp, base)
			out[i] = model.CheckResult{Kind: model.ResultQuantitative, Quantitative: cp}
		}
		return out, nil
	}

	choiceMask := fullChoiceMaskOver(trans, maybe)
	sub, err := trans.Submatrix(maybe, choiceMask, false)
	if err != nil {
		return nil, err
	}
	bSub := vecutil.SelectValues(trans.RowGroupConstrainedSum(maybe, psi), choiceMask)

	numMaybe := sub.NumStates()
	xSub := make([]V, numMaybe)
	for i := range xSub {
		xSub[i] = zero
	}
	op := vecutil.ReduceMin
	if dir == model.Max {
		op = vecutil.ReduceMax
	}

	bi := 0
	for step := uint64(0); ; step++ {
		for bi < len(bounds) && bounds[bi] == step {
			x := snapshot()
			vecutil.SetValuesFromSlice(x, maybe, xSub)
			out[bi] = model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}
			bi++
		}
		if step == kMax {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pctl: BoundedUntilMulti: %w", model.ErrCancelled)
		}
		rowVals, err := sub.Multiply(xSub, bSub)
		if err != nil {
			return nil, err
		}
		next := make([]V, numMaybe)
		vecutil.ReduceByGroup(rowVals, sub.Grp(), op, next, nil)
		xSub = next
	}
	return out, nil
}
