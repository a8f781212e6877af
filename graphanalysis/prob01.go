package graphanalysis

import (
	"fmt"
	"sort"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// rowOwner returns the state s such that grp[s] <= r < grp[s+1].
func rowOwner(grp []int, r int) int {
	return sort.Search(len(grp)-1, func(s int) bool { return grp[s+1] > r }) //nolint:gosec
}

func checkPhiPsi(n int, phi, psi *bitset.Set) error {
	if phi.Len() != n || psi.Len() != n {
		return fmt.Errorf("graphanalysis: phi/psi length mismatch with %d states: %w", n, ErrDimensionMismatch)
	}
	return nil
}

// ProbGreater0E returns the states from which SOME scheduler reaches psi
// through phi with positive probability: a backward BFS seeded at psi,
// extended through any phi-state that has at least one choice landing on
// an already-reached state (spec.md §4.4).
func ProbGreater0E[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	backward := trans.Transpose(true)
	grp := trans.Grp()

	reached := psi.Clone()
	queue := psi.ToSlice()
	for len(queue) > 0 {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		c := queue[0]
		queue = queue[1:]
		for _, e := range backward.Row(c) {
			s := rowOwner(grp, e.Col)
			if reached.Test(s) || !phi.Test(s) {
				continue
			}
			reached.Set(s)
			queue = append(queue, s)
		}
	}
	return reached, nil
}

// ProbGreater0A returns the states from which EVERY scheduler reaches psi
// through phi with positive probability: a state is only admitted once
// all of its choices have at least one successor already reached,
// tracked via per-row and per-state satisfaction counters so the result
// is computed in a single backward sweep (spec.md §4.4).
func ProbGreater0A[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	backward := trans.Transpose(true)
	grp := trans.Grp()

	rowSatisfied := make([]bool, trans.NumRows())
	choicesSatisfied := make([]int, n)
	reached := psi.Clone()
	queue := psi.ToSlice()
	for len(queue) > 0 {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		c := queue[0]
		queue = queue[1:]
		for _, e := range backward.Row(c) {
			r := e.Col
			if rowSatisfied[r] {
				continue
			}
			rowSatisfied[r] = true
			s := rowOwner(grp, r)
			choicesSatisfied[s]++
			if choicesSatisfied[s] == grp[s+1]-grp[s] && phi.Test(s) && !reached.Test(s) {
				reached.Set(s)
				queue = append(queue, s)
			}
		}
	}
	return reached, nil
}

// Prob0E returns the states from which some scheduler achieves
// probability exactly 0 of reaching psi through phi: the complement of
// ProbGreater0A (spec.md §4.4).
func Prob0E[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	r, err := ProbGreater0A(trans, phi, psi, opts...)
	if err != nil {
		return nil, err
	}
	return r.Complement(), nil
}

// Prob0A returns the states from which every scheduler achieves
// probability exactly 0: the complement of ProbGreater0E (spec.md §4.4).
func Prob0A[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	r, err := ProbGreater0E(trans, phi, psi, opts...)
	if err != nil {
		return nil, err
	}
	return r.Complement(), nil
}

// rowFullyIn reports whether every successor of row r lies in allowed.
func rowFullyIn[V numeric.Value](trans *sparsematrix.Matrix[V], r int, allowed *bitset.Set) bool {
	for _, e := range trans.Row(r) {
		if !allowed.Test(e.Col) {
			return false
		}
	}
	return true
}

// unionStates ORs every EndComponent's States together into one set.
func unionStates(n int, ecs []EndComponent) *bitset.Set {
	u := bitset.New(n)
	for _, ec := range ecs {
		u.UnionInPlace(ec.States)
	}
	return u
}

// Prob1A returns the states from which EVERY scheduler reaches psi
// through phi with probability exactly 1 (min-prob = 1).
//
// A state fails this the moment SOME scheduler can force positive
// probability onto a "bad" state: either a state outside phi ∪ psi
// (the until fails there outright, since phi no longer holds and psi
// never did), or a state belonging to a maximal end component
// contained entirely within phi \ psi — once there, a minimizing
// scheduler can simply keep using that component's own closing choices
// forever and never touch psi. Unlike the existential case (Prob1E),
// reaching either kind of bad state is already fatal regardless of
// whether some other, escaping choice also exists there, because the
// minimizer is never obliged to take it. So a single backward
// reachability pass from the bad states suffices, without Prob1E's
// outer prune-and-recheck loop — the pass must stop at psi (a psi
// state is already a success no matter what it does afterward, so it
// can never itself count as doomed):
//
//  1. decompose phi \ psi into its maximal end components
//     (graphanalysis.MaximalEndComponentsRestricted, as
//     eliminator.Eliminate already does for the same reason — a closed
//     end component is a sub-MDP no scheduler is ever forced to leave);
//  2. bad := those components' states, plus everything outside phi ∪ psi;
//  3. every non-psi state that can reach bad (ProbGreater0E, restricted
//     to stop at psi) is doomed to min-prob < 1;
//  4. Prob1A is everything else.
func Prob1A[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	trapMask := phi.Difference(psi)
	mecs, err := MaximalEndComponentsRestricted(trans, trapMask, bitset.NewFull(trans.NumRows()), opts...)
	if err != nil {
		return nil, err
	}
	bad := unionStates(n, mecs).Union(phi.Union(psi).Complement())
	doomed, err := ProbGreater0E(trans, psi.Complement(), bad, opts...)
	if err != nil {
		return nil, err
	}
	return doomed.Complement(), nil
}

// Prob1E returns the states from which SOME scheduler reaches psi
// through phi with probability exactly 1 (max-prob = 1).
//
// Unlike Prob1A, merely being able to reach a phi\psi end component is
// not by itself fatal here: the maximizer gets to choose actions too,
// so a trap only rules a state out if NONE of its member states has any
// other choice (outside the component's own closing choices) whose
// every successor is still believed reachable-to-psi. This is the
// standard outer greatest-fixed-point / inner-end-component-pruning
// loop (Baier & Katoen's qualitative MDP reachability algorithm):
// starting from the coarse candidate ProbGreater0E(phi,psi), repeatedly
// find the end components of the still-surviving phi\psi region and
// strip out any that have no such escaping choice, then recompute
// reachability through the shrunken candidate (so states that only
// depended on a just-stripped trap fall away too) — until a round
// removes nothing.
func Prob1E[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	candidate, err := ProbGreater0E(trans, phi, psi, opts...)
	if err != nil {
		return nil, err
	}
	grp := trans.Grp()

	for {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		mecs, err := MaximalEndComponentsRestricted(trans, candidate.Difference(psi), bitset.NewFull(trans.NumRows()), opts...)
		if err != nil {
			return nil, err
		}
		if len(mecs) == 0 {
			return candidate, nil
		}
		toRemove := bitset.New(n)
		for _, ec := range mecs {
			escapes := false
		escapeSearch:
			for _, s := range ec.States.ToSlice() {
				lo, hi := grp[s], grp[s+1]
				for r := lo; r < hi; r++ {
					if ec.Choices.Test(r) {
						continue // the component's own closing choice, not an escape
					}
					if rowFullyIn(trans, r, candidate) {
						escapes = true
						break escapeSearch
					}
				}
			}
			if !escapes {
				toRemove.UnionInPlace(ec.States)
			}
		}
		if toRemove.IsEmpty() {
			return candidate, nil
		}
		shrunk := phi.Intersection(candidate.Difference(toRemove))
		candidate, err = ProbGreater0E(trans, shrunk, psi, opts...)
		if err != nil {
			return nil, err
		}
	}
}

// Prob01 computes the qualitative (no, yes) partition for the until
// formula phi U psi under the given optimization direction, following
// the PRISM/storm convention that flips which scheduler quantifier
// characterizes "probability 0" versus "probability 1": for
// model.Min, no := Prob0E (some scheduler already gives 0, so the
// minimum is 0) and yes := Prob1A (every scheduler must give 1 for the
// minimum to be 1); for model.Max the quantifiers swap.
func Prob01[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, dir model.OptimizationDirection, opts ...Option) (no, yes *bitset.Set, err error) {
	if dir == model.Min {
		no, err = Prob0E(trans, phi, psi, opts...)
		if err != nil {
			return nil, nil, err
		}
		yes, err = Prob1A(trans, phi, psi, opts...)
		if err != nil {
			return nil, nil, err
		}
		return no, yes, nil
	}
	no, err = Prob0A(trans, phi, psi, opts...)
	if err != nil {
		return nil, nil, err
	}
	yes, err = Prob1E(trans, phi, psi, opts...)
	if err != nil {
		return nil, nil, err
	}
	return no, yes, nil
}

// BoundedProbGreater0E is the step-bounded variant of ProbGreater0E: the
// backward frontier expands by at most k layers, so the result is the
// set of states from which some scheduler reaches psi through phi with
// positive probability within k steps (spec.md §4.4's "bounded variants
// ... iterate at most k backward layers").
func BoundedProbGreater0E[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, k uint64, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	backward := trans.Transpose(true)
	grp := trans.Grp()

	reached := psi.Clone()
	frontier := psi.ToSlice()
	for layer := uint64(0); layer < k && len(frontier) > 0; layer++ {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		var next []int
		for _, c := range frontier {
			for _, e := range backward.Row(c) {
				s := rowOwner(grp, e.Col)
				if reached.Test(s) || !phi.Test(s) {
					continue
				}
				reached.Set(s)
				next = append(next, s)
			}
		}
		frontier = next
	}
	return reached, nil
}

// BoundedProbGreater0A is the step-bounded variant of ProbGreater0A,
// expanding the per-row/per-state satisfaction counters by at most k
// backward layers.
func BoundedProbGreater0A[V numeric.Value](trans *sparsematrix.Matrix[V], phi, psi *bitset.Set, k uint64, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if err := checkPhiPsi(n, phi, psi); err != nil {
		return nil, err
	}
	backward := trans.Transpose(true)
	grp := trans.Grp()

	rowSatisfied := make([]bool, trans.NumRows())
	choicesSatisfied := make([]int, n)
	reached := psi.Clone()
	frontier := psi.ToSlice()
	for layer := uint64(0); layer < k && len(frontier) > 0; layer++ {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		var next []int
		for _, c := range frontier {
			for _, e := range backward.Row(c) {
				r := e.Col
				if rowSatisfied[r] {
					continue
				}
				rowSatisfied[r] = true
				s := rowOwner(grp, r)
				choicesSatisfied[s]++
				if choicesSatisfied[s] == grp[s+1]-grp[s] && phi.Test(s) && !reached.Test(s) {
					reached.Set(s)
					next = append(next, s)
				}
			}
		}
		frontier = next
	}
	return reached, nil
}
