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

// fullChoiceMaskOver builds the choice mask that selects every row of
// every state in states: the "keep the whole row group" shape Submatrix
// needs to preserve 1:1 local-index correspondence with the original
// matrix (spec.md §9 "Scheduler encoding" — a synthesized local index
// must mean the same thing on both sides of a submatrix restriction).
func fullChoiceMaskOver[V numeric.Value](trans *sparsematrix.Matrix[V], states *bitset.Set) *bitset.Set {
	mask := bitset.New(trans.NumRows())
	grp := trans.Grp()
	states.ForEachSet(func(s int) bool {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			mask.Set(r)
		}
		return true
	})
	return mask
}

func toFloat64[V numeric.Value](x []V) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v.Float64()
	}
	return out
}

// pickStayingChoice returns, for state s, the local index (relative to
// its row group) of some choice every one of whose successors lies in
// target. Used to synthesize the "nontrivial" half of an until
// scheduler (spec.md §4.7 step 4: "picking any choice ... staying in
// yes"): on no (Prob0E) under Min and on yes (Prob1E) under Max. Such a
// choice exists for every Prob0E state and every non-ψ Prob1E state;
// where none exists, 0 is returned.
func pickStayingChoice[V numeric.Value](trans *sparsematrix.Matrix[V], s int, target *bitset.Set) uint64 {
	grp := trans.Grp()
	lo, hi := grp[s], grp[s+1]
	for r := lo; r < hi; r++ {
		ok := true
		for _, e := range trans.Row(r) {
			if !target.Test(e.Col) {
				ok = false
				break
			}
		}
		if ok {
			return uint64(r - lo)
		}
	}
	return 0
}

// pickLeavingChoice returns local index 0 for state s — the
// complementary half of an until scheduler: no states under Max
// (Prob0A, value 0 under every choice) and yes states under Min
// (Prob1A, value 1 under every choice). Any choice works there, so
// index 0 (the smallest, per the project's tie-break convention) is
// always an acceptable answer.
func pickLeavingChoice[V numeric.Value](trans *sparsematrix.Matrix[V], s int) uint64 {
	return 0
}

// assembleUntilScheduler builds the full-length scheduler for an until
// query outside the maybe set: the "nontrivial" side (no for Min, yes
// for Max) gets pickStayingChoice, a choice that stays inside that set;
// the "trivial" side (yes for Min, no for Max) gets pickLeavingChoice,
// since any index gives the same value there.
func assembleUntilScheduler[V numeric.Value](trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, no, yes *bitset.Set) model.Scheduler {
	n := trans.NumStates()
	sched := make(model.Scheduler, n)
	if dir == model.Min {
		no.ForEachSet(func(s int) bool {
			sched[s] = pickStayingChoice(trans, s, no)
			return true
		})
		yes.ForEachSet(func(s int) bool {
			sched[s] = pickLeavingChoice(trans, s)
			return true
		})
	} else {
		yes.ForEachSet(func(s int) bool {
			sched[s] = pickStayingChoice(trans, s, yes)
			return true
		})
		no.ForEachSet(func(s int) bool {
			sched[s] = pickLeavingChoice(trans, s)
			return true
		})
	}
	return sched
}

// BoundedUntil computes P_dir(φ U^{≤k} ψ) (spec.md §4.7 "Bounded
// until"). No scheduler is synthesized: the optimal policy for a
// step-bounded objective is in general non-stationary (the best choice
// at a maybe-state depends on how many steps remain), which the flat
// model.Scheduler type cannot represent, so opts.ProduceScheduler is
// ignored here.
func BoundedUntil[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, phi, psi *bitset.Set, k uint64, opts model.Options) (model.CheckResult, error) {
	n := trans.NumStates()
	if phi.Len() != n || psi.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: BoundedUntil: phi/psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}

	var reach *bitset.Set
	var err error
	if dir == model.Min {
		reach, err = graphanalysis.BoundedProbGreater0A(trans, phi, psi, k, graphanalysis.WithContext(ctx))
	} else {
		reach, err = graphanalysis.BoundedProbGreater0E(trans, phi, psi, k, graphanalysis.WithContext(ctx))
	}
	if err != nil {
		return model.CheckResult{}, err
	}
	maybe := reach.Difference(psi)

	kind := trans.Kind()
	zero := numeric.ZeroOf(kind).(V)
	x := make([]V, n)
	for i := range x {
		x[i] = zero
	}

	if !maybe.IsEmpty() {
		choiceMask := fullChoiceMaskOver(trans, maybe)
		sub, err := trans.Submatrix(maybe, choiceMask, false)
		if err != nil {
			return model.CheckResult{}, err
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
		for step := uint64(0); step < k; step++ {
			if err := ctx.Err(); err != nil {
				return model.CheckResult{}, fmt.Errorf("pctl: BoundedUntil: %w", model.ErrCancelled)
			}
			rowVals, err := sub.Multiply(xSub, bSub)
			if err != nil {
				return model.CheckResult{}, err
			}
			next := make([]V, numMaybe)
			vecutil.ReduceByGroup(rowVals, sub.Grp(), op, next, nil)
			xSub = next
		}
		vecutil.SetValuesFromSlice(x, maybe, xSub)
	}
	one := numeric.OneOf(kind).(V)
	vecutil.SetValuesScalar(x, psi, one)

	return model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}, nil
}

// Until computes P_dir(φ U ψ) (spec.md §4.7 "Unbounded until").
func Until[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], initial *bitset.Set, dir model.OptimizationDirection, phi, psi *bitset.Set, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	n := trans.NumStates()
	if phi.Len() != n || psi.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: Until: phi/psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}

	no, yes, err := graphanalysis.Prob01(trans, phi, psi, dir, graphanalysis.WithContext(ctx))
	if err != nil {
		return model.CheckResult{}, err
	}
	maybe := no.Union(yes).Complement()
	kind := trans.Kind()

	if maybe.Intersection(initial).IsEmpty() {
		x := make([]V, n)
		half := numeric.FromFloat64(kind, 0.5).(V)
		one := numeric.OneOf(kind).(V)
		for i := range x {
			x[i] = half
		}
		vecutil.SetValuesScalar(x, no, numeric.ZeroOf(kind).(V))
		vecutil.SetValuesScalar(x, yes, one)
		res := model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}
		if opts.ProduceScheduler {
			res.Scheduler = assembleUntilScheduler(trans, dir, no, yes)
		}
		return res, nil
	}

	choiceMask := fullChoiceMaskOver(trans, maybe)
	sub, err := trans.Submatrix(maybe, choiceMask, false)
	if err != nil {
		return model.CheckResult{}, err
	}
	bSub := vecutil.SelectValues(trans.RowGroupConstrainedSum(maybe, yes), choiceMask)

	solver, err := factory.New(sub, opts)
	if err != nil {
		return model.CheckResult{}, err
	}
	result, err := solver.Solve(ctx, dir, nil, bSub)
	if err != nil {
		return model.CheckResult{}, err
	}

	x := make([]V, n)
	one := numeric.OneOf(kind).(V)
	vecutil.SetValuesScalar(x, yes, one)
	vecutil.SetValuesFromSlice(x, maybe, result.X)

	res := model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}
	if opts.ProduceScheduler {
		sched := assembleUntilScheduler(trans, dir, no, yes)
		maybeIdx := 0
		maybe.ForEachSet(func(s int) bool {
			sched[s] = result.Scheduler[maybeIdx]
			maybeIdx++
			return true
		})
		res.Scheduler = sched
	}
	return res, nil
}
