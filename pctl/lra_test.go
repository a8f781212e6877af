package pctl

import (
	"context"
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/minmax"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// twoStateAlternator is spec.md §8 scenario 4: a single MEC covering
// both states, each with one choice alternating to the other.
func twoStateAlternator(t *testing.T) *sparsematrix.Matrix[numeric.Float64] {
	t.Helper()
	rows := [][]sparsematrix.Entry[numeric.Float64]{
		{{Col: 1, Val: 1.0}},
		{{Col: 0, Val: 1.0}},
	}
	m, err := sparsematrix.NewTriviallyGrouped[numeric.Float64](2, numeric.KindFloat64, rows, true)
	require.NoError(t, err)
	return m
}

func TestLongRunAverageAlternator(t *testing.T) {
	trans := twoStateAlternator(t)
	psi := bitset.New(2)
	psi.Set(1)
	opts := model.NewOptions()

	for _, dir := range []model.OptimizationDirection{model.Min, model.Max} {
		res, err := LongRunAverage(context.Background(), trans, dir, psi, opts, minmax.LpSolverFactory{}, minmax.SolverFactory[numeric.Float64]{})
		require.NoError(t, err)
		require.InDelta(t, 0.5, res.Quantitative[0], 1e-6)
		require.InDelta(t, 0.5, res.Quantitative[1], 1e-6)
	}
}
