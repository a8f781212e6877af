package pctl

import (
	"context"
	"math"
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/minmax"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// threeStateMDP builds spec.md §8 scenario 1's three-state MDP: state 0
// has two choices (c0: self-loop/advance 50-50, c1: jump straight to
// the target), states 1 and 2 self-loop unconditionally. Row indices:
// 0 = c0, 1 = c1, 2 = state 1's loop, 3 = state 2's loop.
func threeStateMDP(t *testing.T) *sparsematrix.Matrix[numeric.Float64] {
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

func TestUntilThreeStateMDP(t *testing.T) {
	trans := threeStateMDP(t)
	target := bitset.New(3)
	target.Set(2)
	full := bitset.NewFull(3)
	initial := bitset.New(3)
	initial.Set(0)
	opts := model.NewOptions(model.WithScheduler())

	maxRes, err := Until(context.Background(), trans, initial, model.Max, full, target, opts, minmax.SolverFactory[numeric.Float64]{})
	require.NoError(t, err)
	require.InDelta(t, 1.0, maxRes.Quantitative[0], 1e-6)
	require.Equal(t, uint64(1), maxRes.Scheduler[0])

	minRes, err := Until(context.Background(), trans, initial, model.Min, full, target, opts, minmax.SolverFactory[numeric.Float64]{})
	require.NoError(t, err)
	require.InDelta(t, 0.0, minRes.Quantitative[0], 1e-6)
	require.Equal(t, uint64(0), minRes.Scheduler[0])
}

func TestBoundedUntilThreeStateMDP(t *testing.T) {
	trans := threeStateMDP(t)
	target := bitset.New(3)
	target.Set(2)
	full := bitset.NewFull(3)
	opts := model.NewOptions()

	res1, err := BoundedUntil(context.Background(), trans, model.Max, full, target, 1, opts)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res1.Quantitative[0], 1e-6)

	res0, err := BoundedUntil(context.Background(), trans, model.Max, full, target, 0, opts)
	require.NoError(t, err)
	require.InDelta(t, 0.0, res0.Quantitative[0], 1e-6)
}

func TestBoundedUntilMultiMatchesIndividualCalls(t *testing.T) {
	trans := threeStateMDP(t)
	target := bitset.New(3)
	target.Set(2)
	full := bitset.NewFull(3)
	opts := model.NewOptions()

	bounds := []uint64{0, 1, 3}
	multi, err := BoundedUntilMulti(context.Background(), trans, model.Max, full, target, bounds, opts)
	require.NoError(t, err)
	require.Len(t, multi, len(bounds))

	for i, k := range bounds {
		single, err := BoundedUntil(context.Background(), trans, model.Max, full, target, k, opts)
		require.NoError(t, err)
		for s := range single.Quantitative {
			require.InDelta(t, single.Quantitative[s], multi[i].Quantitative[s], 1e-9)
		}
	}
}

func TestReachabilityRewardThreeStateMDP(t *testing.T) {
	trans := threeStateMDP(t)
	target := bitset.New(3)
	target.Set(2)
	rm := &model.RewardModel[numeric.Float64]{
		ChoiceRewards: []numeric.Float64{1, 0, 0, 0},
	}
	opts := model.NewOptions()

	minRes, err := ReachabilityReward(context.Background(), trans, model.Min, rm, target, opts, minmax.SolverFactory[numeric.Float64]{})
	require.NoError(t, err)
	require.InDelta(t, 0.0, minRes.Quantitative[0], 1e-6)

	maxRes, err := ReachabilityReward(context.Background(), trans, model.Max, rm, target, opts, minmax.SolverFactory[numeric.Float64]{})
	require.NoError(t, err)
	require.True(t, math.IsInf(maxRes.Quantitative[0], 1))
}
