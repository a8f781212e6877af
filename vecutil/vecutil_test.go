package vecutil

import (
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/stretchr/testify/require"
)

func TestSetAndSelectValues(t *testing.T) {
	v := make([]numeric.Float64, 5)
	mask := bitset.FromSlice(5, []int{1, 3})
	SetValuesFromSlice(v, mask, []numeric.Float64{7, 9})
	require.Equal(t, []numeric.Float64{0, 7, 0, 9, 0}, v)

	got := SelectValues(v, mask)
	require.Equal(t, []numeric.Float64{7, 9}, got)
}

func TestSetValuesScalar(t *testing.T) {
	v := make([]numeric.Float64, 4)
	mask := bitset.FromSlice(4, []int{0, 2})
	SetValuesScalar(v, mask, numeric.Float64(1))
	require.Equal(t, []numeric.Float64{1, 0, 1, 0}, v)
}

func TestSelectValuesRepeatedly(t *testing.T) {
	grp := []int{0, 2, 3}
	src := []numeric.Float64{10, 20}
	out := SelectValuesRepeatedly(grp, src)
	require.Equal(t, []numeric.Float64{10, 10, 20}, out)
}

func TestArithmetic(t *testing.T) {
	a := []numeric.Float64{1, 2, 3}
	b := []numeric.Float64{4, 5, 6}
	require.Equal(t, []numeric.Float64{5, 7, 9}, AddVectors(a, b))
	require.Equal(t, []numeric.Float64{-3, -3, -3}, SubtractVectors(a, b))
	require.Equal(t, []numeric.Float64{4, 10, 18}, MultiplyPointwise(a, b))

	c := append([]numeric.Float64(nil), a...)
	ScaleInPlace(c, numeric.Float64(2))
	require.Equal(t, []numeric.Float64{2, 4, 6}, c)
}

func TestReduceByGroupMinMaxTieBreak(t *testing.T) {
	src := []numeric.Float64{3, 1, 1, 5}
	grp := []int{0, 2, 4}
	dst := make([]numeric.Float64, 2)
	choices := make([]uint64, 2)

	ReduceByGroup(src, grp, ReduceMin, dst, choices)
	require.Equal(t, []numeric.Float64{1, 1}, dst)
	require.Equal(t, []uint64{1, 0}, choices)

	ReduceByGroup(src, grp, ReduceMax, dst, choices)
	require.Equal(t, []numeric.Float64{3, 5}, dst)
	require.Equal(t, []uint64{0, 1}, choices)
}

func TestDotProduct(t *testing.T) {
	a := []numeric.Float64{1, 2, 3}
	b := []numeric.Float64{4, 5, 6}
	require.Equal(t, numeric.Float64(32), DotProduct(a, b, numeric.Float64(0)))
}

func TestEqualModuloPrecisionAbsolute(t *testing.T) {
	a := []numeric.Float64{1.0000001, 2}
	b := []numeric.Float64{1.0, 2}
	require.True(t, EqualModuloPrecision(a, b, 1e-6, false))
	require.False(t, EqualModuloPrecision(a, b, 1e-8, false))
}

func TestEqualModuloPrecisionRelative(t *testing.T) {
	a := []numeric.Float64{0, 100.0001}
	b := []numeric.Float64{0, 100}
	require.True(t, EqualModuloPrecision(a, b, 1e-5, true))

	a2 := []numeric.Float64{1e-9}
	b2 := []numeric.Float64{0}
	require.True(t, EqualModuloPrecision(a2, b2, 1e-6, true))
}

func TestEqualModuloPrecisionInfinity(t *testing.T) {
	inf := numeric.InfOf(numeric.KindFloat64).(numeric.Float64)
	a := []numeric.Float64{inf}
	b := []numeric.Float64{inf}
	require.True(t, EqualModuloPrecision(a, b, 1e-6, false))

	c := []numeric.Float64{1}
	require.False(t, EqualModuloPrecision(a, c, 1e-6, false))
}
