package numeric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat64Arithmetic(t *testing.T) {
	a := Float64(0.5)
	b := Float64(0.25)

	require.Equal(t, Float64(0.75), a.Add(b))
	require.Equal(t, Float64(0.25), a.Sub(b))
	require.Equal(t, Float64(0.125), a.Mul(b))
	require.Equal(t, -1, b.Cmp(a))
	require.False(t, a.IsInf())
	require.True(t, Float64(0).IsZero())
}

func TestFloat64Inf(t *testing.T) {
	inf := InfOf(KindFloat64)
	require.True(t, inf.IsInf())
	require.Equal(t, 1, inf.Cmp(Float64(1e300)))
	require.Nil(t, inf.Rat())
}

func TestRationalArithmetic(t *testing.T) {
	a := RationalFromFloat64(0.5)
	b := RationalFromFloat64(0.25)

	sum := a.Add(b).(Rational)
	require.Equal(t, float64(0.75), sum.Float64())

	prod := a.Mul(b).(Rational)
	require.Equal(t, float64(0.125), prod.Float64())
}

func TestRationalInfAbsorption(t *testing.T) {
	inf := InfOf(KindRational)
	finite := RationalFromFloat64(3)

	require.True(t, inf.Add(finite).IsInf())
	require.True(t, inf.Mul(finite).IsInf())
	require.True(t, inf.Mul(RationalFromFloat64(0)).IsZero())
}

func TestFromFloat64Dispatch(t *testing.T) {
	require.IsType(t, Float64(0), FromFloat64(KindFloat64, 1.5))
	require.IsType(t, Rational{}, FromFloat64(KindRational, 1.5))
}
