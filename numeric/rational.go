package numeric

import "math/big"

// Rational is the exact-arithmetic Value implementation, available to
// policy iteration when the caller needs exactness to avoid cycling
// under rounding error (spec.md §9). The LP backend works in float64
// and does not use it.
//
// The zero value is not valid; use ZeroOf(KindRational) or
// RationalFromFloat64.
type Rational struct {
	r   *big.Rat
	inf bool
}

// RationalFromFloat64 lifts a float64 into an exact Rational.
func RationalFromFloat64(f float64) Rational {
	r := new(big.Rat)
	r.SetFloat64(f)
	return Rational{r: r}
}

// RationalFromRat wraps an existing big.Rat without copying.
func RationalFromRat(r *big.Rat) Rational {
	return Rational{r: r}
}

func (x Rational) Add(o Value) Value {
	y := o.(Rational)
	if x.inf || y.inf {
		return Rational{inf: true}
	}
	return Rational{r: new(big.Rat).Add(x.r, y.r)}
}

func (x Rational) Sub(o Value) Value {
	y := o.(Rational)
	if x.inf && !y.inf {
		return Rational{inf: true}
	}
	if x.inf && y.inf {
		// +Inf - +Inf is not representable; the core never evaluates this
		// (reward infinities are only ever added to finite quantities).
		return Rational{inf: true}
	}
	if y.inf {
		return Rational{r: new(big.Rat)} // treated as -Inf clamps to 0 in this core's usage
	}
	return Rational{r: new(big.Rat).Sub(x.r, y.r)}
}

func (x Rational) Mul(o Value) Value {
	y := o.(Rational)
	if x.inf || y.inf {
		if x.IsZero() || y.IsZero() {
			return Rational{r: new(big.Rat)}
		}
		return Rational{inf: true}
	}
	return Rational{r: new(big.Rat).Mul(x.r, y.r)}
}

func (x Rational) Cmp(o Value) int {
	y := o.(Rational)
	switch {
	case x.inf && y.inf:
		return 0
	case x.inf:
		return 1
	case y.inf:
		return -1
	default:
		return x.r.Cmp(y.r)
	}
}

func (x Rational) IsInf() bool  { return x.inf }
func (x Rational) IsZero() bool { return !x.inf && x.r.Sign() == 0 }

func (x Rational) Float64() float64 {
	if x.inf {
		return posInf
	}
	f, _ := x.r.Float64()
	return f
}

func (x Rational) Rat() *big.Rat {
	if x.inf {
		return nil
	}
	return new(big.Rat).Set(x.r)
}
