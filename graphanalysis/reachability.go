package graphanalysis

import (
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// ReachableStates returns the set of states forward-reachable from start
// by following, at every state, any one choice of its row group (i.e.
// reachability under some scheduler), restricted to only passing through
// states in allowed. start itself is always included. allowed == nil
// means "every state is a valid intermediate". A state in stop is
// included in the result but its own successors are never explored,
// letting a caller treat stop as an absorbing frontier (spec.md §4.4).
// stop == nil disables this cutoff.
//
// Grounded on bfs.BFS's walker/queue shape (bfs/bfs.go), generalized from
// a core.Graph's adjacency to a sparsematrix.Matrix's row-grouped
// transition structure.
//
// Complexity: Time O(nnz), Space O(n).
func ReachableStates[V numeric.Value](trans *sparsematrix.Matrix[V], start *bitset.Set, allowed *bitset.Set, stop *bitset.Set, opts ...Option) (*bitset.Set, error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	if start.Len() != n {
		return nil, fmt.Errorf("graphanalysis: ReachableStates start length %d != %d: %w", start.Len(), n, ErrDimensionMismatch)
	}
	if allowed != nil && allowed.Len() != n {
		return nil, fmt.Errorf("graphanalysis: ReachableStates allowed length %d != %d: %w", allowed.Len(), n, ErrDimensionMismatch)
	}
	if stop != nil && stop.Len() != n {
		return nil, fmt.Errorf("graphanalysis: ReachableStates stop length %d != %d: %w", stop.Len(), n, ErrDimensionMismatch)
	}

	visited := start.Clone()
	queue := visited.ToSlice()
	grp := trans.Grp()
	for len(queue) > 0 {
		if err := cancelled(o); err != nil {
			return nil, err
		}
		s := queue[0]
		queue = queue[1:]
		if stop != nil && stop.Test(s) {
			continue
		}
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			for _, e := range trans.Row(r) {
				if visited.Test(e.Col) {
					continue
				}
				if allowed != nil && !allowed.Test(e.Col) {
					continue
				}
				visited.Set(e.Col)
				queue = append(queue, e.Col)
			}
		}
	}
	return visited, nil
}
