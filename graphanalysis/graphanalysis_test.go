package graphanalysis

import (
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// threeStateMDP mirrors spec.md §8 scenario 1: state 0 has choices
// c0 -> {0:0.5, 1:0.5} and c1 -> {2:1.0}; states 1 and 2 self-loop.
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

func TestReachableStates(t *testing.T) {
	m := threeStateMDP(t)
	start := bitset.FromSlice(3, []int{0})
	got, err := ReachableStates(m, start, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, got.ToSlice())
}

func TestReachableStatesStop(t *testing.T) {
	m := threeStateMDP(t)
	start := bitset.FromSlice(3, []int{0})
	stop := bitset.FromSlice(3, []int{1})
	got, err := ReachableStates(m, start, nil, stop)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, got.ToSlice())
}

func TestProbGreater0EAndA(t *testing.T) {
	m := threeStateMDP(t)
	phi := bitset.NewFull(3)
	psi := bitset.FromSlice(3, []int{2})

	e, err := ProbGreater0E(m, phi, psi)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, e.ToSlice())

	a, err := ProbGreater0A(m, phi, psi)
	require.NoError(t, err)
	// state 0's choice c0 never reaches {2}, so under every scheduler
	// state 0 only reaches psi with positive probability if forced to
	// pick c1; ProbGreater0A requires *every* choice to satisfy, so 0
	// is excluded.
	require.Equal(t, []int{2}, a.ToSlice())
}

func TestProb01Min(t *testing.T) {
	m := threeStateMDP(t)
	phi := bitset.NewFull(3)
	psi := bitset.FromSlice(3, []int{2})

	no, yes, err := Prob01(m, phi, psi, model.Min)
	require.NoError(t, err)
	// Min=0 states: some scheduler gives 0 -> state 0 picking c0 forever
	// gives 0 (Prob0E).
	require.True(t, no.Test(0))
	require.False(t, no.Test(2))
	require.True(t, yes.Test(2))
}

func TestProb01Max(t *testing.T) {
	m := threeStateMDP(t)
	phi := bitset.NewFull(3)
	psi := bitset.FromSlice(3, []int{2})

	no, yes, err := Prob01(m, phi, psi, model.Max)
	require.NoError(t, err)
	require.False(t, no.Test(0))
	require.True(t, yes.Test(0))
	require.True(t, yes.Test(2))
}

func TestStronglyConnectedComponents(t *testing.T) {
	m := threeStateMDP(t)
	comps, err := StronglyConnectedComponents(m)
	require.NoError(t, err)
	require.Len(t, comps, 3) // each state is its own SCC (no cycle back to 0)
}

func TestBottomSCCsAndCover(t *testing.T) {
	m := threeStateMDP(t)
	bottoms, _, err := BottomSCCs(m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, bottoms.ToSlice())

	cover, err := BSCCCover(m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, cover.ToSlice())
}

func TestMaximalEndComponents(t *testing.T) {
	m := threeStateMDP(t)
	mecs, err := MaximalEndComponents(m)
	require.NoError(t, err)
	require.Len(t, mecs, 2)
	require.Equal(t, []int{1}, mecs[0].States.ToSlice())
	require.Equal(t, []int{2}, mecs[1].States.ToSlice())
}

func TestMaximalEndComponentsWithCycle(t *testing.T) {
	// 0 -> 1 (c0), 0 -> 0 (c1, self-loop); 1 -> 0 (single choice).
	// Every choice already stays inside {0,1}, so the whole two-state
	// system forms a single end component with no pruning required.
	b := sparsematrix.NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 1.0}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	mecs, err := MaximalEndComponents(m)
	require.NoError(t, err)
	require.Len(t, mecs, 1)
	require.Equal(t, []int{0, 1}, mecs[0].States.ToSlice())
}

func TestBoundedProbGreater0E(t *testing.T) {
	m := threeStateMDP(t)
	phi := bitset.NewFull(3)
	psi := bitset.FromSlice(3, []int{2})

	zero, err := BoundedProbGreater0E(m, phi, psi, 0)
	require.NoError(t, err)
	require.Equal(t, []int{2}, zero.ToSlice())

	one, err := BoundedProbGreater0E(m, phi, psi, 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, one.ToSlice())
}
