// Package vecutil implements C3: pointwise vector arithmetic,
// gather/scatter by mask, grouped reduction with argmin/argmax tracking,
// dot product, and precision comparison.
//
// Determinism & Performance:
//   - Fixed ascending-index traversal for every loop; reductions resolve
//     ties toward the smallest local index (spec.md §4.3), matching the
//     teacher's "Determinism & Performance" doc convention
//     (matrix/impl_statistics.go) and its ew*-kernel naming.
package vecutil

import (
	"math"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
)

// SetValuesFromSlice scatters src into v at the positions selected by
// mask, in ascending order: v[mask[0]] = src[0], v[mask[1]] = src[1], ...
func SetValuesFromSlice[V numeric.Value](v []V, mask *bitset.Set, src []V) {
	i := 0
	mask.ForEachSet(func(pos int) bool {
		v[pos] = src[i]
		i++
		return true
	})
}

// SetValuesScalar scatters a single scalar into every position selected
// by mask.
func SetValuesScalar[V numeric.Value](v []V, mask *bitset.Set, scalar V) {
	mask.ForEachSet(func(pos int) bool {
		v[pos] = scalar
		return true
	})
}

// SelectValues gathers v at the positions selected by mask into a fresh
// slice of length mask.Count(), in ascending order.
func SelectValues[V numeric.Value](v []V, mask *bitset.Set) []V {
	out := make([]V, 0, mask.Count())
	mask.ForEachSet(func(pos int) bool {
		out = append(out, v[pos])
		return true
	})
	return out
}

// SelectValuesRepeatedly gathers src (indexed by state) into a
// choice-indexed (row) output of length grp[len(grp)-1], replicating
// src[s] across every row of group s — the per-choice broadcast
// spec.md §4.3 names.
func SelectValuesRepeatedly[V numeric.Value](grp []int, src []V) []V {
	numRows := grp[len(grp)-1]
	out := make([]V, numRows)
	for s := 0; s < len(grp)-1; s++ {
		for r := grp[s]; r < grp[s+1]; r++ {
			out[r] = src[s]
		}
	}
	return out
}

// AddVectors returns a + b element-wise.
func AddVectors[V numeric.Value](a, b []V) []V {
	out := make([]V, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i]).(V)
	}
	return out
}

// SubtractVectors returns a - b element-wise.
func SubtractVectors[V numeric.Value](a, b []V) []V {
	out := make([]V, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i]).(V)
	}
	return out
}

// MultiplyPointwise returns a ⊙ b element-wise.
func MultiplyPointwise[V numeric.Value](a, b []V) []V {
	out := make([]V, len(a))
	for i := range a {
		out[i] = a[i].Mul(b[i]).(V)
	}
	return out
}

// ScaleInPlace multiplies every element of v by scalar, in place.
func ScaleInPlace[V numeric.Value](v []V, scalar V) {
	for i := range v {
		v[i] = v[i].Mul(scalar).(V)
	}
}

// ReduceOp selects Min or Max for ReduceByGroup.
type ReduceOp int

const (
	ReduceMin ReduceOp = iota
	ReduceMax
)

// ReduceByGroup computes, for each group s, dst[s] = op over src[r] for
// r in [grp[s], grp[s+1]). When choices is non-nil, choices[s] is set to
// the *local* index (relative to grp[s]) attaining the optimum, with
// ties broken toward the smallest local index (spec.md §4.3/§9 — this is
// what makes a synthesized Scheduler deterministic).
func ReduceByGroup[V numeric.Value](src []V, grp []int, op ReduceOp, dst []V, choices []uint64) {
	for s := 0; s < len(grp)-1; s++ {
		lo, hi := grp[s], grp[s+1]
		best := src[lo]
		bestLocal := uint64(0)
		for r := lo + 1; r < hi; r++ {
			c := src[r].Cmp(best)
			better := false
			switch op {
			case ReduceMin:
				better = c < 0
			case ReduceMax:
				better = c > 0
			}
			if better {
				best = src[r]
				bestLocal = uint64(r - lo)
			}
		}
		dst[s] = best
		if choices != nil {
			choices[s] = bestLocal
		}
	}
}

// DotProduct returns Σ a[i]·b[i].
func DotProduct[V numeric.Value](a, b []V, zero V) V {
	acc := zero
	for i := range a {
		acc = acc.Add(a[i].Mul(b[i])).(V)
	}
	return acc
}

// EqualModuloPrecision reports whether every element of a and b agrees
// within eps. In relative mode the per-element criterion is
// |a-b| <= eps*|b|, with the convention that b == 0 implies |a| <= eps
// (spec.md §4.3).
func EqualModuloPrecision[V numeric.Value](a, b []V, eps float64, relative bool) bool {
	for i := range a {
		af, bf := a[i].Float64(), b[i].Float64()
		if math.IsInf(af, 1) && math.IsInf(bf, 1) {
			continue
		}
		if math.IsInf(af, 1) != math.IsInf(bf, 1) {
			return false
		}
		diff := math.Abs(af - bf)
		if relative {
			if bf == 0 {
				if math.Abs(af) > eps {
					return false
				}
				continue
			}
			if diff > eps*math.Abs(bf) {
				return false
			}
			continue
		}
		if diff > eps {
			return false
		}
	}
	return true
}
