// Package graphanalysis implements C4: qualitative reachability
// (Prob0/Prob1 under existential and universal schedulers), forward
// reachability, strongly connected components, and maximal end-component
// decomposition over a sparsematrix.Matrix's row-grouped transition
// structure.
//
// Grounded on the teacher's bfs and dfs packages: the walker-struct,
// functional-Option, and White/Gray/Black traversal-state idioms carry
// over unchanged; the graph walked here is the row-grouped MDP graph
// (successor of a state = union of columns touched by any choice in its
// row group) rather than a core.Graph.
package graphanalysis

import "errors"

// ERROR PRIORITY: a caller that gets ErrDimensionMismatch should not also
// expect Tarjan/MEC-specific errors to have fired; dimension checks run
// first, matching sparsematrix and vecutil's convention of validating
// shape before doing any graph work.
var (
	// ErrDimensionMismatch is returned when a supplied bitset.Set's
	// length disagrees with the matrix's state or row count.
	ErrDimensionMismatch = errors.New("graphanalysis: dimension mismatch")

	// ErrInvalidArgument is returned for structurally invalid input,
	// such as an empty target set where one is required.
	ErrInvalidArgument = errors.New("graphanalysis: invalid argument")
)
