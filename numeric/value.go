// Package numeric parameterizes the core's matrices, vectors, and solvers
// over a numeric field instead of committing to float64 everywhere.
//
// Purpose:
//   - Value iteration only needs approximate arithmetic and is always run
//     in Float64.
//   - Policy iteration is prone to cycling under rounding error and may
//     be run in Rational for exactness, per the source system's
//     C++-template-over-double/exact-rational design. The LP backend
//     (model.LpProblem, minmax.LpSolver) works in float64 only.
//
// Contract:
//   - Every Value must support +∞ (IsInf), a total order (Cmp),
//     addition, subtraction and multiplication, and lossless conversion to/from big.Rat so a
//     Float64 pipeline and a Rational pipeline can exchange inputs.
package numeric

import "math/big"

// Value is the numeric field the sparse matrix, vector utilities, and
// solvers are generic over.
//
// Implementations: Float64, Rational.
type Value interface {
	Add(Value) Value
	Sub(Value) Value
	Mul(Value) Value

	// Cmp returns -1, 0, or +1 as the receiver is less than, equal to, or
	// greater than other. +Inf compares greater than every finite value
	// and equal only to +Inf.
	Cmp(other Value) int

	// IsInf reports whether the value is the distinguished +∞.
	IsInf() bool

	// IsZero reports whether the value is the additive identity.
	IsZero() bool

	// Float64 converts to the nearest float64 (lossy for Rational).
	Float64() float64

	// Rat converts to an exact big.Rat. Implementations that cannot
	// represent +Inf as a rational return nil for infinite values;
	// callers must check IsInf first.
	Rat() *big.Rat
}

// Zero and One are generic constructors resolved via a Kind tag rather
// than reflection, since Go generics cannot call a zero-arg constructor
// on an arbitrary Value implementation.
type Kind int

const (
	KindFloat64 Kind = iota
	KindRational
)

// ZeroOf returns the additive identity for the given Kind.
func ZeroOf(k Kind) Value {
	switch k {
	case KindRational:
		return Rational{r: new(big.Rat)}
	default:
		return Float64(0)
	}
}

// OneOf returns the multiplicative identity for the given Kind.
func OneOf(k Kind) Value {
	switch k {
	case KindRational:
		return Rational{r: big.NewRat(1, 1)}
	default:
		return Float64(1)
	}
}

// InfOf returns +∞ for the given Kind.
func InfOf(k Kind) Value {
	switch k {
	case KindRational:
		return Rational{inf: true}
	default:
		return Float64(posInf)
	}
}

// FromFloat64 lifts a plain float64 into the given Kind, used when
// ingesting caller-supplied probabilities/rewards.
func FromFloat64(k Kind, f float64) Value {
	switch k {
	case KindRational:
		return RationalFromFloat64(f)
	default:
		return Float64(f)
	}
}
