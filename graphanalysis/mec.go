package graphanalysis

import (
	"sort"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// EndComponent is a maximal end component: a set of states together with,
// for each of those states, a nonempty subset of its choices such that
// every transition of a retained choice stays inside States (spec.md
// §4.5's input to the EC eliminator).
type EndComponent struct {
	States  *bitset.Set
	Choices *bitset.Set
}

// MaximalEndComponents decomposes trans into its maximal end components
// via de Alfaro's alternating SCC/choice-pruning fixed point: repeatedly
// compute SCCs of the subgraph induced by the surviving (state, choice)
// pairs, drop any choice that leaves its own SCC, drop any state left
// with no surviving choice, and recompute until no choice is removed.
// What remains are exactly the maximal end components — every
// nontrivial SCC (size > 1, or a single state retaining a self-loop
// choice) of the final fixed point.
//
// There is no teacher precedent for this (no example repo models end
// components); it is built on top of tarjanSCC, which this package
// already grounds in dfs's iterative-traversal idiom.
//
// Complexity: Time O((n + nnz) * rounds), rounds bounded by the number
// of distinct choices ever removed, so O(n + nnz) per round and at most
// O(numRows) rounds in the worst case.
func MaximalEndComponents[V numeric.Value](trans *sparsematrix.Matrix[V], opts ...Option) ([]EndComponent, error) {
	n := trans.NumStates()
	numRows := trans.NumRows()
	return MaximalEndComponentsRestricted(trans, bitset.NewFull(n), bitset.NewFull(numRows), opts...)
}

// MaximalEndComponentsRestricted is MaximalEndComponents seeded with an
// initial state mask and choice mask instead of the full matrix —
// exactly the "subsystem mask S ... restricted to zero_reward_actions"
// input the EC eliminator (C5, spec.md §4.5) needs. initialStates and
// initialChoices are not mutated; the fixed point runs on internal
// copies.
func MaximalEndComponentsRestricted[V numeric.Value](trans *sparsematrix.Matrix[V], initialStates, initialChoices *bitset.Set, opts ...Option) ([]EndComponent, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	grp := trans.Grp()

	S := initialStates.Clone()
	C := initialChoices.Clone()

	for {
		if err := cancelled(o); err != nil {
			return nil, err
		}

		// Drop states that lost every choice.
		changedState := false
		S.ForEachSet(func(s int) bool {
			lo, hi := grp[s], grp[s+1]
			any := false
			for r := lo; r < hi; r++ {
				if C.Test(r) {
					any = true
					break
				}
			}
			if !any {
				S.Clear(s)
				changedState = true
			}
			return true
		})
		if S.IsEmpty() {
			return nil, nil
		}

		successors := func(s int) []int {
			var out []int
			lo, hi := grp[s], grp[s+1]
			for r := lo; r < hi; r++ {
				if !C.Test(r) {
					continue
				}
				for _, e := range trans.Row(r) {
					if S.Test(e.Col) {
						out = append(out, e.Col)
					}
				}
			}
			return out
		}
		components, err := tarjanSCC(n, S.ToSlice(), successors, o)
		if err != nil {
			return nil, err
		}
		owner := make([]int, n)
		for i := range owner {
			owner[i] = -1
		}
		for ci, comp := range components {
			for _, s := range comp {
				owner[s] = ci
			}
		}

		// Drop any surviving choice that leaves its state's SCC.
		removedChoice := false
		S.ForEachSet(func(s int) bool {
			lo, hi := grp[s], grp[s+1]
			for r := lo; r < hi; r++ {
				if !C.Test(r) {
					continue
				}
				for _, e := range trans.Row(r) {
					if !S.Test(e.Col) || owner[e.Col] != owner[s] {
						C.Clear(r)
						removedChoice = true
						break
					}
				}
			}
			return true
		})

		if !removedChoice && !changedState {
			return extractEndComponents(components, S, C, grp), nil
		}
	}
}

// extractEndComponents filters the fixed point's SCCs down to genuine
// end components (size > 1, or a single state with a surviving
// self-loop choice) and packages each with its surviving choice mask,
// emitted in ascending order of smallest state index (spec.md §4.4;
// Tarjan itself yields reverse topological order, not index order).
func extractEndComponents(components [][]int, S, C *bitset.Set, grp []int) []EndComponent {
	sorted := append([][]int(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return minOf(sorted[i]) < minOf(sorted[j]) })

	var out []EndComponent
	for _, comp := range sorted {
		if len(comp) == 1 {
			s := comp[0]
			lo, hi := grp[s], grp[s+1]
			hasChoice := false
			for r := lo; r < hi; r++ {
				if C.Test(r) {
					hasChoice = true
					break
				}
			}
			if !hasChoice {
				continue
			}
		}
		states := bitset.New(S.Len())
		choices := bitset.New(C.Len())
		for _, s := range comp {
			states.Set(s)
			lo, hi := grp[s], grp[s+1]
			for r := lo; r < hi; r++ {
				if C.Test(r) {
					choices.Set(r)
				}
			}
		}
		out = append(out, EndComponent{States: states, Choices: choices})
	}
	return out
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
