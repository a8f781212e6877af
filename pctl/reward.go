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

// resolveChoiceRewards folds every component of a RewardModel (spec.md
// §3: per-state, per-choice, per-transition, any subset present) into a
// single per-choice reward vector of length trans.NumRows(), the shape
// every reward query below consumes. Grounded on
// model.RewardModel.ReduceTransitionRewards for the transition-reward
// half and vecutil.SelectValuesRepeatedly for the state-reward
// broadcast.
func resolveChoiceRewards[V numeric.Value](rm *model.RewardModel[V], trans *sparsematrix.Matrix[V], kind numeric.Kind) []V {
	numChoices := trans.NumRows()
	zero := numeric.ZeroOf(kind).(V)
	out := make([]V, numChoices)
	for i := range out {
		out[i] = zero
	}
	if rm.ChoiceRewards != nil {
		copy(out, rm.ChoiceRewards)
	}
	if rm.StateRewards != nil {
		out = vecutil.AddVectors(out, vecutil.SelectValuesRepeatedly(trans.Grp(), rm.StateRewards))
	}
	if reduced := rm.ReduceTransitionRewards(trans, zero); reduced != nil {
		out = vecutil.AddVectors(out, reduced)
	}
	return out
}

// CumulativeReward computes the expected total reward accrued over
// exactly k steps under the extremal scheduler (spec.md §4.7
// "cumulative accumulates"): seed x = 0, apply k Bellman sweeps with the
// per-choice reward as the additive term.
func CumulativeReward[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, rm *model.RewardModel[V], k uint64, opts model.Options) (model.CheckResult, error) {
	return iterateReward(ctx, trans, dir, rm, k, true)
}

// InstantaneousReward computes the expected reward observed exactly at
// step k (spec.md §4.7 "instantaneous uses per-state reward only"):
// seed x = StateRewards and propagate backward through k steps with no
// additive term, so reward is counted once rather than accumulated.
func InstantaneousReward[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, rm *model.RewardModel[V], k uint64, opts model.Options) (model.CheckResult, error) {
	if rm.StateRewards == nil {
		return model.CheckResult{}, fmt.Errorf("pctl: InstantaneousReward: reward model has no per-state rewards: %w", ErrInvalidArgument)
	}
	return iterateReward(ctx, trans, dir, rm, k, false)
}

func iterateReward[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, rm *model.RewardModel[V], k uint64, cumulative bool) (model.CheckResult, error) {
	n := trans.NumStates()
	kind := trans.Kind()
	grp := trans.Grp()
	op := vecutil.ReduceMin
	if dir == model.Max {
		op = vecutil.ReduceMax
	}

	x := make([]V, n)
	var b []V
	if cumulative {
		zero := numeric.ZeroOf(kind).(V)
		for i := range x {
			x[i] = zero
		}
		b = resolveChoiceRewards(rm, trans, kind)
	} else {
		copy(x, rm.StateRewards)
	}

	for step := uint64(0); step < k; step++ {
		if err := ctx.Err(); err != nil {
			return model.CheckResult{}, fmt.Errorf("pctl: iterateReward: %w", model.ErrCancelled)
		}
		rowVals, err := trans.Multiply(x, b)
		if err != nil {
			return model.CheckResult{}, err
		}
		next := make([]V, n)
		vecutil.ReduceByGroup(rowVals, grp, op, next, nil)
		x = next
	}
	return model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}, nil
}

// ReachabilityReward computes R_dir(F target) (spec.md §4.7 "Bounded /
// unbounded reachability reward"). The quantifier picking infty is
// deliberately flipped versus probability-until: a Max-reward scheduler
// wants to AVOID reaching target when doing so is profitable, so infty
// (reward necessarily infinite) is the complement of "every scheduler
// reaches target" for Max and "some scheduler reaches target" for Min —
// the opposite pairing from Prob01.
func ReachabilityReward[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, rm *model.RewardModel[V], target *bitset.Set, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	n := trans.NumStates()
	if target.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: ReachabilityReward: target length mismatch with %d states: %w", n, ErrInvalidArgument)
	}
	full := bitset.NewFull(n)

	var alwaysReach *bitset.Set
	var err error
	if dir == model.Max {
		alwaysReach, err = graphanalysis.Prob1A(trans, full, target, graphanalysis.WithContext(ctx))
	} else {
		alwaysReach, err = graphanalysis.Prob1E(trans, full, target, graphanalysis.WithContext(ctx))
	}
	if err != nil {
		return model.CheckResult{}, err
	}
	infty := alwaysReach.Complement()
	maybe := target.Complement().Difference(infty)

	kind := trans.Kind()
	x := make([]V, n)
	zero := numeric.ZeroOf(kind).(V)
	for i := range x {
		x[i] = zero
	}
	vecutil.SetValuesScalar(x, infty, numeric.InfOf(kind).(V))

	var maybeScheduler model.Scheduler
	if !maybe.IsEmpty() {
		choiceMask := fullChoiceMaskOver(trans, maybe)
		sub, err := trans.Submatrix(maybe, choiceMask, false)
		if err != nil {
			return model.CheckResult{}, err
		}

		choiceRewards := resolveChoiceRewards(rm, trans, kind)
		bSub := vecutil.SelectValues(choiceRewards, choiceMask)
		rows := choiceMask.ToSlice()
		inf := numeric.InfOf(kind).(V)
		for i, r := range rows {
			for _, e := range trans.Row(r) {
				if infty.Test(e.Col) {
					bSub[i] = inf
					break
				}
			}
		}

		solver, err := factory.New(sub, opts)
		if err != nil {
			return model.CheckResult{}, err
		}
		result, err := solver.Solve(ctx, dir, nil, bSub)
		if err != nil {
			return model.CheckResult{}, err
		}
		vecutil.SetValuesFromSlice(x, maybe, result.X)
		maybeScheduler = result.Scheduler
	}

	res := model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}
	if opts.ProduceScheduler {
		sched := make(model.Scheduler, n)
		idx := 0
		maybe.ForEachSet(func(s int) bool {
			if maybeScheduler != nil {
				sched[s] = maybeScheduler[idx]
			}
			idx++
			return true
		})
		res.Scheduler = sched
	}
	return res, nil
}
