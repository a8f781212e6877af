package numeric

import (
	"math"
	"math/big"
)

var posInf = math.Inf(1) // the float64 +∞ behind InfOf(KindFloat64) and Rational.Float64; see init

// Float64 is the default Value implementation: plain IEEE-754 double
// precision, used by value iteration and everywhere the caller has not
// asked for exact arithmetic.
type Float64 float64

func init() {
	// Start-up check that posInf is the IEEE-754 +Inf.
	if !math.IsInf(float64(posInf), 1) {
		panic("numeric: posInf is not +Inf")
	}
}

func (f Float64) Add(o Value) Value { return Float64(float64(f) + o.(Float64).Float64()) }
func (f Float64) Sub(o Value) Value { return Float64(float64(f) - o.(Float64).Float64()) }
func (f Float64) Mul(o Value) Value { return Float64(float64(f) * o.(Float64).Float64()) }

func (f Float64) Cmp(o Value) int {
	g := o.(Float64)
	switch {
	case float64(f) < float64(g):
		return -1
	case float64(f) > float64(g):
		return 1
	default:
		return 0
	}
}

func (f Float64) IsInf() bool    { return math.IsInf(float64(f), 1) }
func (f Float64) IsZero() bool   { return float64(f) == 0 }
func (f Float64) Float64() float64 { return float64(f) }

func (f Float64) Rat() *big.Rat {
	if f.IsInf() {
		return nil
	}
	r := new(big.Rat)
	r.SetFloat64(float64(f))
	return r
}
