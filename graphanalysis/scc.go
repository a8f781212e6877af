package graphanalysis

import (
	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// sccFrame is one level of the explicit recursion stack used by the
// iterative Tarjan walk: it resumes exploring state v's successors at
// successor index childIdx, the way the teacher's dfs package tracks
// traversal state per vertex rather than relying on Go's call stack for
// graphs large enough to overflow it.
type sccFrame struct {
	v        int
	succs    []int
	childIdx int
}

// StronglyConnectedComponents partitions the states of trans into
// maximal strongly connected components (any choice edge counts as an
// arc, matching the "exists a scheduler that takes this transition"
// reading used throughout this package), returned as disjoint
// []int state lists in an order consistent with Tarjan's algorithm (reverse
// topological order of the condensation DAG).
//
// There is no teacher precedent for SCC decomposition (bfs/dfs traverse
// core.Graph's string-keyed vertices and never compute components); this
// extends dfs's White/Gray/Black vertex-state idiom (dfs/types.go) to an
// explicit-stack Tarjan walk so it behaves correctly on state counts deep
// enough to blow a recursive call stack.
//
// Complexity: Time O(n + nnz), Space O(n).
func StronglyConnectedComponents[V numeric.Value](trans *sparsematrix.Matrix[V], opts ...Option) ([][]int, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	grp := trans.Grp()

	roots := make([]int, n)
	for s := range roots {
		roots[s] = s
	}
	successors := func(s int) []int {
		var out []int
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			for _, e := range trans.Row(r) {
				out = append(out, e.Col)
			}
		}
		return out
	}
	return tarjanSCC(n, roots, successors, o)
}

// tarjanSCC is the explicit-stack Tarjan core shared by
// StronglyConnectedComponents and the end-component iteration in mec.go;
// roots is the set of states to seed the walk from (in order), and
// successors(s) must only return states also present in roots' closure
// for the caller's intended subgraph.
func tarjanSCC(n int, roots []int, successors func(int) []int, o Options) ([][]int, error) {
	index := make([]int, n)
	lowlink := make([]int, n)
	const white = -1
	for i := range index {
		index[i] = white
	}
	onStack := make([]bool, n)
	var tarjanStack []int
	nextIndex := 0
	var components [][]int

	for _, root := range roots {
		if index[root] != white {
			continue
		}
		if err := cancelled(o); err != nil {
			return nil, err
		}

		stack := []sccFrame{{v: root, succs: successors(root)}}
		index[root] = nextIndex
		lowlink[root] = nextIndex
		nextIndex++
		tarjanStack = append(tarjanStack, root)
		onStack[root] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.childIdx < len(top.succs) {
				w := top.succs[top.childIdx]
				top.childIdx++
				switch {
				case index[w] == white:
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					tarjanStack = append(tarjanStack, w)
					onStack[w] = true
					stack = append(stack, sccFrame{v: w, succs: successors(w)})
				case onStack[w]:
					if index[w] < lowlink[top.v] {
						lowlink[top.v] = index[w]
					}
				}
				continue
			}

			// Done with v's successors: propagate lowlink to parent and,
			// if v is a component root, pop the component off
			// tarjanStack.
			v := top.v
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				if lowlink[v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var comp []int
				for {
					w := tarjanStack[len(tarjanStack)-1]
					tarjanStack = tarjanStack[:len(tarjanStack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				components = append(components, comp)
			}
		}
	}
	return components, nil
}

// sccMembership returns, for each state, the index into components of
// the component it belongs to.
func sccMembership(n int, components [][]int) []int {
	owner := make([]int, n)
	for ci, comp := range components {
		for _, s := range comp {
			owner[s] = ci
		}
	}
	return owner
}

// bottomMask marks, for each component index, whether that component has
// no choice edge leaving it (i.e. is a bottom SCC).
func bottomMask[V numeric.Value](trans *sparsematrix.Matrix[V], components [][]int, owner []int) []bool {
	isBottom := make([]bool, len(components))
	for i := range isBottom {
		isBottom[i] = true
	}
	grp := trans.Grp()
	for s := 0; s < trans.NumStates(); s++ {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			for _, e := range trans.Row(r) {
				if owner[e.Col] != owner[s] {
					isBottom[owner[s]] = false
				}
			}
		}
	}
	return isBottom
}

// BottomSCCs returns the union of every bottom strongly connected
// component: a component with no choice edge leaving it. These are
// exactly the recurrent classes of any Markov chain induced by fixing a
// scheduler that never leaves its own component, and are the starting
// point for long-run-average reward computation (spec.md §4.7).
func BottomSCCs[V numeric.Value](trans *sparsematrix.Matrix[V], opts ...Option) (*bitset.Set, []int, error) {
	components, err := StronglyConnectedComponents(trans, opts...)
	if err != nil {
		return nil, nil, err
	}
	n := trans.NumStates()
	owner := sccMembership(n, components)
	isBottom := bottomMask(trans, components, owner)

	result := bitset.New(n)
	var indices []int
	for ci, comp := range components {
		if !isBottom[ci] {
			continue
		}
		indices = append(indices, ci)
		for _, s := range comp {
			result.Set(s)
		}
	}
	return result, indices, nil
}

// BSCCCover returns a set containing exactly one representative state
// per bottom strongly connected component (the smallest state index of
// each), the form spec.md §4.4 describes as the input to the
// elimination linear-equation solver's long-run-average computation.
func BSCCCover[V numeric.Value](trans *sparsematrix.Matrix[V], opts ...Option) (*bitset.Set, error) {
	components, err := StronglyConnectedComponents(trans, opts...)
	if err != nil {
		return nil, err
	}
	n := trans.NumStates()
	owner := sccMembership(n, components)
	isBottom := bottomMask(trans, components, owner)

	cover := bitset.New(n)
	for ci, comp := range components {
		if !isBottom[ci] {
			continue
		}
		rep := comp[0]
		for _, s := range comp[1:] {
			if s < rep {
				rep = s
			}
		}
		cover.Set(rep)
	}
	return cover, nil
}
