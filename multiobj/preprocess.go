package multiobj

import (
	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// directionSign returns +1 for Max, -1 for Min: driver space always
// maximizes, so a Min objective's raw value is negated on the way in and
// the result is negated again on the way out (spec.md §4.8 preprocessing
// "a sign flip... to always maximize").
func directionSign(d model.OptimizationDirection) float64 {
	if d == model.Min {
		return -1
	}
	return 1
}

// resolveChoiceRewardsFloat64 folds a RewardModel's per-state, per-choice
// and per-transition components into one per-choice float64 vector.
// Grounded on pctl/reward.go's resolveChoiceRewards, the same fold
// expressed over numeric.Value; this package works in float64
// throughout since every quantity a weighted-sum driver touches (weight
// vectors, thresholds, Pareto coordinates) is already float64 in the
// public API, so carrying the exact-arithmetic numeric.Value type
// further in would buy nothing — recorded as a deliberate scope
// decision in DESIGN.md.
func resolveChoiceRewardsFloat64[V numeric.Value](rm *model.RewardModel[V], trans *sparsematrix.Matrix[V]) []float64 {
	numRows := trans.NumRows()
	out := make([]float64, numRows)
	if rm == nil {
		return out
	}
	if rm.ChoiceRewards != nil {
		for i, v := range rm.ChoiceRewards {
			out[i] = v.Float64()
		}
	}
	grp := trans.Grp()
	if rm.StateRewards != nil {
		for s := 0; s < trans.NumStates(); s++ {
			sv := rm.StateRewards[s].Float64()
			for r := grp[s]; r < grp[s+1]; r++ {
				out[r] += sv
			}
		}
	}
	if reduced := rm.ReduceTransitionRewards(trans, numeric.ZeroOf(trans.Kind()).(V)); reduced != nil {
		for i, v := range reduced {
			out[i] += v.Float64()
		}
	}
	return out
}

// rowTargetMass sums the probability mass of row r landing in target —
// the per-step "reward" a probability objective earns the moment it
// resolves (spec.md §4.8: "probability operators are treated as an
// implicit reward of 1 on entering the target set").
func rowTargetMass[V numeric.Value](trans *sparsematrix.Matrix[V], r int, target *bitset.Set) float64 {
	mass := 0.0
	for _, e := range trans.Row(r) {
		if target.Test(e.Col) {
			mass += e.Val.Float64()
		}
	}
	return mass
}

// objectiveStepReward returns, for every row of trans, the raw
// (direction-unsigned) per-choice value objective i contributes:
// probability mass entering Target for ObjectiveProbability, the
// resolved choice reward for ObjectiveReward.
func objectiveStepReward[V numeric.Value](obj Objective[V], trans *sparsematrix.Matrix[V]) []float64 {
	numRows := trans.NumRows()
	if obj.Kind == ObjectiveProbability {
		out := make([]float64, numRows)
		for r := 0; r < numRows; r++ {
			out[r] = rowTargetMass(trans, r, obj.Target)
		}
		return out
	}
	return resolveChoiceRewardsFloat64(obj.RewardModel, trans)
}
