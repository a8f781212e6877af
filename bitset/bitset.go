// Package bitset implements C1: a dense, fixed-length bit vector over
// state indices with set algebra, population count, ordered iteration,
// rank/select, and the spec's "project" operator.
//
// Storage is delegated to github.com/bits-and-blooms/bitset, a
// word-packed dense bit vector already present in the retrieval corpus
// (an indirect dependency of the luxfi/consensus validator-membership
// code); Set wraps it and adds Select, Project, and an exclusive-count
// Rank built on the upstream's inclusive Rank, plus a fixed-length
// discipline (the
// upstream type grows on demand; this package pins the length at
// construction and makes that pinning explicit via Resize).
package bitset

import (
	bb "github.com/bits-and-blooms/bitset"
)

// Set is a dense bit vector of a fixed length n, indexed 0..n-1.
type Set struct {
	n   uint
	raw *bb.BitSet
}

// New allocates a Set of length n with every bit clear.
func New(n int) *Set {
	return &Set{n: uint(n), raw: bb.New(uint(n))}
}

// NewFull allocates a Set of length n with every bit set.
func NewFull(n int) *Set {
	s := New(n)
	for i := uint(0); i < uint(n); i++ {
		s.raw.Set(i)
	}
	return s
}

// Len returns the fixed length of the set.
func (s *Set) Len() int { return int(s.n) }

// Test reports whether bit i is set. i must be in [0, Len()).
func (s *Set) Test(i int) bool { return s.raw.Test(uint(i)) }

// Set sets bit i.
func (s *Set) Set(i int) *Set { s.raw.Set(uint(i)); return s }

// Clear clears bit i.
func (s *Set) Clear(i int) *Set { s.raw.Clear(uint(i)); return s }

// SetTo sets or clears bit i according to v.
func (s *Set) SetTo(i int, v bool) *Set {
	if v {
		s.raw.Set(uint(i))
	} else {
		s.raw.Clear(uint(i))
	}
	return s
}

// Count returns the number of set bits.
func (s *Set) Count() int { return int(s.raw.Count()) }

// IsEmpty reports whether no bit is set.
func (s *Set) IsEmpty() bool { return s.raw.None() }

// IsFull reports whether every bit in [0, Len()) is set.
func (s *Set) IsFull() bool { return int(s.raw.Count()) == int(s.n) }

// Clone returns an independent deep copy.
func (s *Set) Clone() *Set {
	return &Set{n: s.n, raw: s.raw.Clone()}
}

// Resize grows or shrinks the set to length n, filling any newly exposed
// positions with fill. Shrinking discards bits beyond the new length.
func (s *Set) Resize(n int, fill bool) *Set {
	out := New(n)
	if fill {
		upper := n
		if int(s.n) > upper {
			// shrinking: nothing new to fill
		} else {
			for i := int(s.n); i < n; i++ {
				out.Set(i)
			}
		}
	}
	limit := int(s.n)
	if n < limit {
		limit = n
	}
	for i := 0; i < limit; i++ {
		if s.Test(i) {
			out.Set(i)
		}
	}
	*s = *out
	return s
}

// --- Boolean set algebra ---------------------------------------------

func sameLen(a, b *Set) {
	if a.n != b.n {
		panic("bitset: length mismatch")
	}
}

// Complement returns ¬a restricted to [0, Len()).
func (s *Set) Complement() *Set {
	out := New(int(s.n))
	for i := uint(0); i < s.n; i++ {
		if !s.raw.Test(i) {
			out.raw.Set(i)
		}
	}
	return out
}

// Union returns a ∪ b.
func (s *Set) Union(other *Set) *Set {
	sameLen(s, other)
	return &Set{n: s.n, raw: s.raw.Union(other.raw)}
}

// Intersection returns a ∩ b.
func (s *Set) Intersection(other *Set) *Set {
	sameLen(s, other)
	return &Set{n: s.n, raw: s.raw.Intersection(other.raw)}
}

// Difference returns a \ b.
func (s *Set) Difference(other *Set) *Set {
	sameLen(s, other)
	return &Set{n: s.n, raw: s.raw.Difference(other.raw)}
}

// SymmetricDifference returns a ⊕ b.
func (s *Set) SymmetricDifference(other *Set) *Set {
	sameLen(s, other)
	return &Set{n: s.n, raw: s.raw.SymmetricDifference(other.raw)}
}

// UnionInPlace mutates s to s ∪ other.
func (s *Set) UnionInPlace(other *Set) *Set {
	sameLen(s, other)
	s.raw.InPlaceUnion(other.raw)
	return s
}

// IntersectionInPlace mutates s to s ∩ other.
func (s *Set) IntersectionInPlace(other *Set) *Set {
	sameLen(s, other)
	s.raw.InPlaceIntersection(other.raw)
	return s
}

// DifferenceInPlace mutates s to s \ other.
func (s *Set) DifferenceInPlace(other *Set) *Set {
	sameLen(s, other)
	s.raw.InPlaceDifference(other.raw)
	return s
}

// Equals reports whether two sets of equal length have identical bits.
func (s *Set) Equals(other *Set) bool {
	if s.n != other.n {
		return false
	}
	return s.raw.Equal(other.raw)
}

// --- Ordered iteration -------------------------------------------------

// FirstSet returns the smallest set index, or (0, false) if empty.
func (s *Set) FirstSet() (int, bool) {
	i, ok := s.raw.NextSet(0)
	return int(i), ok
}

// NextSetFrom returns the smallest set index >= i, or (0, false) if none.
func (s *Set) NextSetFrom(i int) (int, bool) {
	idx, ok := s.raw.NextSet(uint(i))
	return int(idx), ok
}

// ForEachSet calls fn for every set index in ascending order, stopping
// early if fn returns false.
func (s *Set) ForEachSet(fn func(i int) bool) {
	for i, ok := s.raw.NextSet(0); ok; i, ok = s.raw.NextSet(i + 1) {
		if !fn(int(i)) {
			return
		}
	}
}

// ToSlice materializes the ascending list of set indices.
func (s *Set) ToSlice() []int {
	out := make([]int, 0, s.Count())
	s.ForEachSet(func(i int) bool { out = append(out, i); return true })
	return out
}

// FromSlice builds a Set of length n from an explicit index list.
func FromSlice(n int, indices []int) *Set {
	s := New(n)
	for _, i := range indices {
		s.Set(i)
	}
	return s
}

// --- Rank / Select -------------------------------------------------

// Rank returns the number of set bits in [0, i) ("number of set bits
// below index i", spec.md §4.1).
func (s *Set) Rank(i int) int {
	if i <= 0 {
		return 0
	}
	if i >= int(s.n) {
		return s.Count()
	}
	// bits-and-blooms exposes Rank as inclusive of i; subtract Test(i)
	// to get the exclusive count this spec wants, or use Rank(i-1).
	return int(s.raw.Rank(uint(i - 1)))
}

// Select returns the index of the k-th set bit (0-based), or (0, false)
// if the set has fewer than k+1 set bits.
func (s *Set) Select(k int) (int, bool) {
	if k < 0 {
		return 0, false
	}
	idx, ok := s.raw.NextSet(0)
	count := 0
	for ok {
		if count == k {
			return int(idx), true
		}
		count++
		idx, ok = s.raw.NextSet(idx + 1)
	}
	return 0, false
}

// --- Project -------------------------------------------------------

// Project implements the spec's `%` operator: a.Project(b) yields a new
// Set of length b.Count() whose j-th bit is a's value at the position of
// b's j-th set bit.
func (s *Set) Project(mask *Set) *Set {
	out := New(mask.Count())
	j := 0
	mask.ForEachSet(func(i int) bool {
		if i < int(s.n) && s.Test(i) {
			out.Set(j)
		}
		j++
		return true
	})
	return out
}
