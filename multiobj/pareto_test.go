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

// branchingMDP builds spec.md §8 scenario 6's shape: a single decision
// point where choice 0 commits to target1 and choice 1 commits to
// target2. The achievable (P(F target1), P(F target2)) set is the
// convex hull of the two deterministic schedulers' outcomes, (1,0) and
// (0,1) — the classical example of why multi-objective Pareto curves
// need the convex combination of deterministic policies, not just a
// single optimal one.
func branchingMDP(t *testing.T) *sparsematrix.Matrix[numeric.Float64] {
	t.Helper()
	b := sparsematrix.NewBuilder[numeric.Float64](3, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
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

func TestParetoBranchingMDP(t *testing.T) {
	trans := branchingMDP(t)
	target1 := bitset.New(3).Set(1)
	target2 := bitset.New(3).Set(2)

	q := Query[numeric.Float64]{
		Kind: Pareto,
		Objectives: []Objective[numeric.Float64]{
			{Kind: ObjectiveProbability, Direction: model.Max, Target: target1},
			{Kind: ObjectiveProbability, Direction: model.Max, Target: target2},
		},
	}
	res, err := Run(context.Background(), trans, 0, q, model.NewOptions(model.WithPrecision(1e-6)))
	require.NoError(t, err)
	require.NotNil(t, res.Pareto)

	verts := res.Pareto.Under.Vertices()
	require.Len(t, verts, 2)
	foundOne0, found0One := false, false
	for _, v := range verts {
		if approxEq(v.Value[0], 1) && approxEq(v.Value[1], 0) {
			foundOne0 = true
		}
		if approxEq(v.Value[0], 0) && approxEq(v.Value[1], 1) {
			found0One = true
		}
	}
	require.True(t, foundOne0, "expected a vertex at (1,0)")
	require.True(t, found0One, "expected a vertex at (0,1)")
	require.InDelta(t, 0.0, Gap(res.Pareto.Under, res.Pareto.Over), 1e-6)
}

func approxEq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
