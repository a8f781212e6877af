package sparsematrix

import (
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/stretchr/testify/require"
)

// threeStateMDP builds spec.md §8 scenario 1: states {0,1,2}; state 0 has
// two choices c0 (-> 0 @0.5, 1 @0.5) and c1 (-> 2 @1.0); states 1 and 2
// self-loop.
func threeStateMDP(t *testing.T) *Matrix[numeric.Float64] {
	t.Helper()
	b := NewBuilder[numeric.Float64](3, numeric.KindFloat64)
	b.AddRow([]Entry[numeric.Float64]{{Col: 0, Val: 0.5}, {Col: 1, Val: 0.5}})
	b.AddRow([]Entry[numeric.Float64]{{Col: 2, Val: 1.0}})
	b.EndState()
	b.AddRow([]Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	b.AddRow([]Entry[numeric.Float64]{{Col: 2, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)
	return m
}

func TestBuilderShape(t *testing.T) {
	m := threeStateMDP(t)
	require.Equal(t, 3, m.NumStates())
	require.Equal(t, 4, m.NumRows())
	require.Equal(t, []int{0, 2, 3, 4}, m.Grp())
}

func TestBuildRejectsDeadlockState(t *testing.T) {
	b := NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.EndState() // no rows added for state 0
	b.AddRow([]Entry[numeric.Float64]{{Col: 0, Val: 1.0}})
	b.EndState()
	_, err := b.Build(true)
	require.ErrorIs(t, err, ErrDeadlockState)
}

func TestBuildRejectsNonSubstochastic(t *testing.T) {
	b := NewBuilder[numeric.Float64](1, numeric.KindFloat64)
	b.AddRow([]Entry[numeric.Float64]{{Col: 0, Val: 1.5}})
	b.EndState()
	_, err := b.Build(true)
	require.ErrorIs(t, err, ErrNotSubstochastic)
}

func TestAt(t *testing.T) {
	m := threeStateMDP(t)
	require.Equal(t, numeric.Float64(0.5), m.At(0, 0))
	require.Equal(t, numeric.Float64(0.5), m.At(0, 1))
	require.Equal(t, numeric.Float64(0), m.At(0, 2))
	require.Equal(t, numeric.Float64(1.0), m.At(1, 2))
}

func TestMultiply(t *testing.T) {
	m := threeStateMDP(t)
	x := []numeric.Float64{1, 2, 3}
	out, err := m.Multiply(x, nil)
	require.NoError(t, err)
	require.Equal(t, []numeric.Float64{1.5, 3, 2, 3}, out)
}

func TestMultiplyWithAdd(t *testing.T) {
	m := threeStateMDP(t)
	x := []numeric.Float64{0, 0, 0}
	add := []numeric.Float64{1, 2, 3, 4}
	out, err := m.Multiply(x, add)
	require.NoError(t, err)
	require.Equal(t, add, out)
}

func TestMultiplyDimensionMismatch(t *testing.T) {
	m := threeStateMDP(t)
	_, err := m.Multiply([]numeric.Float64{1, 2}, nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTransposeRoundTripsEntries(t *testing.T) {
	m := threeStateMDP(t)
	tr := m.Transpose(true)
	require.Equal(t, 3, tr.NumStates())
	require.True(t, tr.IsTriviallyGrouped())
	// column 2 receives from rows 1 (c1) and 3 (self-loop)
	row2 := tr.Row(2)
	require.Len(t, row2, 2)
	require.Equal(t, 1, row2[0].Col)
	require.Equal(t, 3, row2[1].Col)
}

func TestTransposeDropsZeroGroupsWhenRequested(t *testing.T) {
	b := NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.AddRow([]Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	b.AddRow([]Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	withZero := m.Transpose(true)
	require.Equal(t, 2, withZero.NumStates())
	require.Equal(t, 0, len(withZero.Row(0)))

	without := m.Transpose(false)
	require.Equal(t, 1, without.NumStates())
}

func TestSubmatrixRenumbers(t *testing.T) {
	m := threeStateMDP(t)
	states := bitset.FromSlice(3, []int{1, 2})
	choices := bitset.NewFull(4)
	sub, err := m.Submatrix(states, choices, false)
	require.NoError(t, err)
	require.Equal(t, 2, sub.NumStates())
	// old state 1 -> new 0, old state 2 -> new 1
	require.Equal(t, numeric.Float64(1.0), sub.At(0, 0))
	require.Equal(t, numeric.Float64(1.0), sub.At(1, 1))
}

func TestSubmatrixSelfLoopOnRemovedTarget(t *testing.T) {
	m := threeStateMDP(t)
	states := bitset.FromSlice(3, []int{0})
	// pick only choice c0 (row 0): -> 0@0.5, 1@0.5; state 1 is removed
	choices := bitset.New(4).Set(0)
	sub, err := m.Submatrix(states, choices, true)
	require.NoError(t, err)
	require.Equal(t, numeric.Float64(1.0), sub.At(0, 0))
}

func TestRowGroupConstrainedSum(t *testing.T) {
	m := threeStateMDP(t)
	states := bitset.NewFull(3)
	target := bitset.FromSlice(3, []int{2})
	sums := m.RowGroupConstrainedSum(states, target)
	require.Equal(t, []numeric.Float64{0, 1.0, 0, 1.0}, sums)
}

func TestConvertToEquationSystem(t *testing.T) {
	b := NewBuilder[numeric.Float64](2, numeric.KindFloat64)
	b.AddRow([]Entry[numeric.Float64]{{Col: 0, Val: 0.5}, {Col: 1, Val: 0.5}})
	b.EndState()
	b.AddRow([]Entry[numeric.Float64]{{Col: 1, Val: 1.0}})
	b.EndState()
	m, err := b.Build(true)
	require.NoError(t, err)

	require.NoError(t, m.ConvertToEquationSystem())
	require.Equal(t, numeric.Float64(0.5), m.At(0, 0))
	require.Equal(t, numeric.Float64(-0.5), m.At(0, 1))
	require.Equal(t, numeric.Float64(0), m.At(1, 0))
	require.Equal(t, numeric.Float64(0), m.At(1, 1))
}
