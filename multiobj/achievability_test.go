package multiobj

import (
	"context"
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// reachTargetMDP builds the same three-state shape pctl's tests use
// (state 0's c0 can never reach the target, c1 reaches it in one step;
// states 1 and 2 self-loop): the only scheduler freedom worth exploring
// for a reachability objective is "take c1 or don't".
func reachTargetMDP(t *testing.T) *sparsematrix.Matrix[numeric.Float64] {
	t.Helper()
	b := sparsematrix.NewBuilder[numeric.Float64](3, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 0.5}, {Col: 1, Val: 0.5}})
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 2, Val: 1.0}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 2, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)
	return m
}

// spec.md §8 scenario 5: can the scheduler simultaneously reach P(F
// target) >= 0.5 and keep R(F target) <= 2, using a reward model that
// charges the jump-to-target choice (c1) a unit cost?
func TestAchievabilityBothThresholdsMet(t *testing.T) {
	trans := reachTargetMDP(t)
	target := bitset.New(3).Set(2)
	rm := &model.RewardModel[numeric.Float64]{ChoiceRewards: []numeric.Float64{0, 1, 0, 0}}

	q := Query[numeric.Float64]{
		Kind: Achievability,
		Objectives: []Objective[numeric.Float64]{
			{Kind: ObjectiveProbability, Direction: model.Max, Target: target, Threshold: 0.5},
			{Kind: ObjectiveReward, Direction: model.Min, Target: target, RewardModel: rm, Threshold: 2},
		},
	}
	res, err := Run(context.Background(), trans, 0, q, model.DefaultOptions())
	require.NoError(t, err)
	require.True(t, res.Achievable)
}

// Probability 1.5 is unreachable by construction (probabilities are
// bounded by 1), so this must resolve to Achievable=false rather than
// exhausting the refinement budget.
func TestAchievabilityImpossibleThreshold(t *testing.T) {
	trans := reachTargetMDP(t)
	target := bitset.New(3).Set(2)

	q := Query[numeric.Float64]{
		Kind: Achievability,
		Objectives: []Objective[numeric.Float64]{
			{Kind: ObjectiveProbability, Direction: model.Max, Target: target, Threshold: 1.5},
			{Kind: ObjectiveProbability, Direction: model.Max, Target: target, Threshold: 0.0},
		},
	}
	res, err := Run(context.Background(), trans, 0, q, model.DefaultOptions())
	require.NoError(t, err)
	require.False(t, res.Achievable)
}
