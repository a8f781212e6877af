package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetClearTest(t *testing.T) {
	s := New(8)
	require.True(t, s.IsEmpty())
	s.Set(3).Set(5)
	require.True(t, s.Test(3))
	require.True(t, s.Test(5))
	require.False(t, s.Test(4))
	require.Equal(t, 2, s.Count())
	s.Clear(3)
	require.False(t, s.Test(3))
}

func TestSetAlgebra(t *testing.T) {
	a := FromSlice(6, []int{0, 2, 4})
	b := FromSlice(6, []int{2, 3, 4})

	require.Equal(t, []int{0, 2, 3, 4}, a.Union(b).ToSlice())
	require.Equal(t, []int{2, 4}, a.Intersection(b).ToSlice())
	require.Equal(t, []int{0}, a.Difference(b).ToSlice())
	require.Equal(t, []int{0, 3}, a.SymmetricDifference(b).ToSlice())
	require.Equal(t, []int{1, 3, 5}, a.Complement().ToSlice())
}

func TestIsFullAndIsEmpty(t *testing.T) {
	full := NewFull(4)
	require.True(t, full.IsFull())
	require.False(t, full.IsEmpty())

	empty := New(4)
	require.True(t, empty.IsEmpty())
	require.False(t, empty.IsFull())
}

func TestOrderedIteration(t *testing.T) {
	s := FromSlice(10, []int{1, 4, 7})
	first, ok := s.FirstSet()
	require.True(t, ok)
	require.Equal(t, 1, first)

	next, ok := s.NextSetFrom(2)
	require.True(t, ok)
	require.Equal(t, 4, next)

	_, ok = s.NextSetFrom(8)
	require.False(t, ok)
}

func TestRankSelect(t *testing.T) {
	s := FromSlice(10, []int{1, 4, 7})
	require.Equal(t, 0, s.Rank(0))
	require.Equal(t, 0, s.Rank(1))
	require.Equal(t, 1, s.Rank(2))
	require.Equal(t, 2, s.Rank(5))
	require.Equal(t, 3, s.Rank(10))

	idx, ok := s.Select(0)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	idx, ok = s.Select(2)
	require.True(t, ok)
	require.Equal(t, 7, idx)

	_, ok = s.Select(3)
	require.False(t, ok)
}

func TestProject(t *testing.T) {
	a := FromSlice(8, []int{1, 3, 5, 7})
	mask := FromSlice(8, []int{1, 2, 3, 5})

	// mask's set bits are 1,2,3,5; a's values there are set, clear, set, set
	got := a.Project(mask)
	require.Equal(t, 4, got.Len())
	require.Equal(t, []int{0, 2, 3}, got.ToSlice())
}

func TestProjectRoundTripWhenSubset(t *testing.T) {
	b := FromSlice(8, []int{0, 1, 2, 3, 4, 5, 6, 7})
	a := FromSlice(8, []int{1, 3, 5})

	left := a.Project(b)
	bb := b.Project(b)
	right := a.Project(b).Project(bb)

	require.Equal(t, left.ToSlice(), right.ToSlice())
}

func TestResize(t *testing.T) {
	s := FromSlice(4, []int{1, 3})
	s.Resize(6, true)
	require.Equal(t, 6, s.Len())
	require.Equal(t, []int{1, 3, 4, 5}, s.ToSlice())

	s2 := FromSlice(4, []int{1, 3})
	s2.Resize(2, false)
	require.Equal(t, []int{1}, s2.ToSlice())
}

func TestClone(t *testing.T) {
	a := FromSlice(4, []int{0, 2})
	b := a.Clone()
	b.Set(3)
	require.False(t, a.Test(3))
	require.True(t, b.Test(3))
}
