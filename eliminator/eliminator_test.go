package eliminator

import (
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// threeStateWithEC builds: state0 has two choices, c0 -> {1:1.0}
// (internal to a candidate end component) and c1 -> {2:1.0} (leaving);
// state1 has one choice -> {0:1.0} (internal); state2 self-loops. Rows
// 0 and 2 are flagged as the only zero-reward (EC-eligible) actions, so
// {0,1} forms the sole maximal end component and state2 never joins it.
func threeStateWithEC(t *testing.T) (*sparsematrix.Matrix[numeric.Float64], *bitset.Set, *bitset.Set, *bitset.Set) {
	t.Helper()
	b := sparsematrix.NewBuilder[numeric.Float64](3, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}}) // row 0: state0 c0
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 2, Val: 1.0}}) // row 1: state0 c1
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 1.0}}) // row 2: state1
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 2, Val: 1.0}}) // row 3: state2
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	S := bitset.NewFull(3)
	zeroReward := bitset.FromSlice(4, []int{0, 2})
	possiblyRecurrent := bitset.NewFull(3)
	return m, S, zeroReward, possiblyRecurrent
}

func TestEliminateCollapsesEndComponent(t *testing.T) {
	m, S, zeroReward, possiblyRecurrent := threeStateWithEC(t)

	res, err := Eliminate(m, S, zeroReward, possiblyRecurrent)
	require.NoError(t, err)

	require.Equal(t, 2, res.Matrix.NumStates())
	require.Equal(t, []int{0, 0, 1}, res.OldToNewState)
	require.Equal(t, []int{1, 3}, res.NewToOldRow)

	// New state 0 (the collapsed {0,1} representative) keeps only the
	// leaving choice, now pointing at new state 1 (old state 2).
	row0 := res.Matrix.Row(0)
	require.Len(t, row0, 1)
	require.Equal(t, 1, row0[0].Col)
	require.InDelta(t, 1.0, row0[0].Val.Float64(), 1e-12)

	// New state 1 (old state 2) keeps its self-loop, now onto itself.
	row1 := res.Matrix.Row(1)
	require.Len(t, row1, 1)
	require.Equal(t, 1, row1[0].Col)
}

func TestEliminateSyntheticSelfLoopWhenFullyInternal(t *testing.T) {
	// A two-state system that is entirely one end component: every
	// choice is flagged zero-reward, so the representative has no
	// leaving choice and must receive a synthetic self-loop.
	b := sparsematrix.NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	S := bitset.NewFull(2)
	zeroReward := bitset.NewFull(2)
	possiblyRecurrent := bitset.NewFull(2)

	res, err := Eliminate(m, S, zeroReward, possiblyRecurrent)
	require.NoError(t, err)

	require.Equal(t, 1, res.Matrix.NumStates())
	require.Equal(t, []int{-1}, res.NewToOldRow)
	row0 := res.Matrix.Row(0)
	require.Len(t, row0, 1)
	require.Equal(t, 0, row0[0].Col)
	require.InDelta(t, 1.0, row0[0].Val.Float64(), 1e-12)
}

func TestEliminateNoEndComponents(t *testing.T) {
	// No choice is zero-reward, so no end component is ever formed and
	// every state passes through unchanged.
	b := sparsematrix.NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: 0, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	S := bitset.NewFull(2)
	zeroReward := bitset.New(2)
	possiblyRecurrent := bitset.NewFull(2)

	res, err := Eliminate(m, S, zeroReward, possiblyRecurrent)
	require.NoError(t, err)
	require.Equal(t, 2, res.Matrix.NumStates())
	require.Equal(t, []int{0, 1}, res.OldToNewState)
	require.Equal(t, []int{0, 1}, res.NewToOldRow)
}

func TestEliminateDimensionMismatch(t *testing.T) {
	m, S, zeroReward, possiblyRecurrent := threeStateWithEC(t)
	_, err := Eliminate(m, bitset.NewFull(2), zeroReward, possiblyRecurrent)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_ = S
}
