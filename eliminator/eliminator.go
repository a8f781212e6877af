package eliminator

import (
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/graphanalysis"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// Result is the output of Eliminate: a collapsed matrix plus the two
// translation arrays needed to map a computation back onto the original
// model (spec.md §4.5).
type Result[V numeric.Value] struct {
	// Matrix is A' — the row-grouped matrix with S's maximal end
	// components collapsed to single representative states.
	Matrix *sparsematrix.Matrix[V]

	// NewToOldRow maps each row of Matrix back to the row of the
	// original matrix it was copied from. A representative state's
	// synthetic stay-in-EC self-loop (inserted only when every leaving
	// choice was pruned, leaving the representative with none) has no
	// original row and is marked -1.
	NewToOldRow []int

	// OldToNewState maps each original state in S to its row group
	// index in Matrix. States outside S map to -1.
	OldToNewState []int
}

// entity is one row group of the output matrix in ascending new-state
// order: either a single passthrough state or a collapsed MEC.
type entity struct {
	mec     *graphanalysis.EndComponent // nil for a passthrough state
	members []int                       // ascending old-state indices; len 1 for passthrough
}

// Eliminate collapses every maximal end component of the subsystem
// S, restricted to the choices in zeroRewardActions and seeded only
// from states also in possiblyRecurrent, into a single representative
// state. Choices leaving a collapsed end component are relocated to its
// representative (columns remapped, duplicate columns merged); choices
// internal to the end component are dropped. A representative left with
// no leaving choice receives a synthetic self-loop so the result never
// contains a deadlock state.
//
// Grounded on flow/dinic.go's residual-graph-plus-translation-map shape:
// dinic builds a transformed graph from the original one and hands back
// the bookkeeping needed to interpret results on it, exactly the role
// NewToOldRow/OldToNewState play here for the EC-collapsed matrix.
//
// Fails with ErrDimensionMismatch if any mask's length disagrees with
// trans, or ErrInvalidArgument if S is empty or any row reachable from S
// targets a state outside S.
func Eliminate[V numeric.Value](trans *sparsematrix.Matrix[V], S, zeroRewardActions, possiblyRecurrent *bitset.Set, opts ...Option) (*Result[V], error) {
	o := buildOptions(opts)
	n := trans.NumStates()
	numRows := trans.NumRows()

	if S.Len() != n || possiblyRecurrent.Len() != n {
		return nil, fmt.Errorf("eliminator: Eliminate state mask length mismatch: %w", ErrDimensionMismatch)
	}
	if zeroRewardActions.Len() != numRows {
		return nil, fmt.Errorf("eliminator: Eliminate choice mask length %d != %d: %w", zeroRewardActions.Len(), numRows, ErrDimensionMismatch)
	}
	if S.IsEmpty() {
		return nil, fmt.Errorf("eliminator: Eliminate: S is empty: %w", ErrInvalidArgument)
	}

	mecSeed := S.Intersection(possiblyRecurrent)
	mecs, err := graphanalysis.MaximalEndComponentsRestricted(trans, mecSeed, zeroRewardActions, graphanalysis.WithContext(o.Ctx))
	if err != nil {
		return nil, err
	}

	mecOf := make([]int, n)
	for i := range mecOf {
		mecOf[i] = -1
	}
	for mi, mec := range mecs {
		mec.States.ForEachSet(func(s int) bool {
			mecOf[s] = mi
			return true
		})
	}

	// Pass 1: walk S in ascending order, assigning new-state indices and
	// building the ordered entity list. A MEC's new index is claimed the
	// first time any of its members is reached (always its smallest
	// member, since S.ToSlice() is ascending and MaximalEndComponents
	// guarantees disjoint state sets).
	oldToNewState := make([]int, n)
	for i := range oldToNewState {
		oldToNewState[i] = -1
	}
	var entities []entity
	emittedMEC := make([]bool, len(mecs))
	newIdx := 0
	S.ForEachSet(func(s int) bool {
		mi := mecOf[s]
		if mi < 0 {
			oldToNewState[s] = newIdx
			newIdx++
			entities = append(entities, entity{members: []int{s}})
			return true
		}
		if !emittedMEC[mi] {
			emittedMEC[mi] = true
			members := mecs[mi].States.ToSlice()
			entities = append(entities, entity{mec: &mecs[mi], members: members})
			for _, m := range members {
				oldToNewState[m] = newIdx
			}
			newIdx++
		}
		return true
	})

	grp := trans.Grp()
	kind := trans.Kind()
	b := sparsematrix.NewBuilder[V](newIdx, kind)
	newToOldRow := make([]int, 0, numRows)

	for _, e := range entities {
		rowsInGroup := 0
		if e.mec == nil {
			s := e.members[0]
			lo, hi := grp[s], grp[s+1]
			for r := lo; r < hi; r++ {
				out, err := remapRow(trans.Row(r), oldToNewState)
				if err != nil {
					return nil, fmt.Errorf("eliminator: row %d: %w", r, err)
				}
				b.AddRow(out)
				newToOldRow = append(newToOldRow, r)
				rowsInGroup++
			}
		} else {
			choices := e.mec.Choices
			for _, m := range e.members {
				lo, hi := grp[m], grp[m+1]
				for r := lo; r < hi; r++ {
					if choices.Test(r) {
						continue // internal to the EC, dropped
					}
					out, err := remapRow(trans.Row(r), oldToNewState)
					if err != nil {
						return nil, fmt.Errorf("eliminator: leaving choice row %d: %w", r, err)
					}
					b.AddRow(out)
					newToOldRow = append(newToOldRow, r)
					rowsInGroup++
				}
			}
			if rowsInGroup == 0 {
				// Every choice of the EC was internal: insert a self-loop
				// so the representative is not a deadlock state in the
				// collapsed matrix.
				self := oldToNewState[e.members[0]]
				b.AddRow([]sparsematrix.Entry[V]{{Col: self, Val: numeric.OneOf(kind).(V)}})
				newToOldRow = append(newToOldRow, -1)
				rowsInGroup++
			}
		}
		b.EndState()
	}

	m, err := b.Build(false)
	if err != nil {
		return nil, err
	}
	return &Result[V]{Matrix: m, NewToOldRow: newToOldRow, OldToNewState: oldToNewState}, nil
}

// remapRow translates a row's columns through oldToNewState, merging any
// entries that collide after remapping (two distinct original targets
// folding into the same collapsed representative).
func remapRow[V numeric.Value](row []sparsematrix.Entry[V], oldToNewState []int) ([]sparsematrix.Entry[V], error) {
	out := make([]sparsematrix.Entry[V], 0, len(row))
	for _, e := range row {
		nc := oldToNewState[e.Col]
		if nc < 0 {
			return nil, fmt.Errorf("target state %d outside subsystem: %w", e.Col, ErrInvalidArgument)
		}
		out = append(out, sparsematrix.Entry[V]{Col: nc, Val: e.Val})
	}
	return mergeEntriesByColumn(out), nil
}

// mergeEntriesByColumn sums values sharing a column. It does not sort:
// the Builder sorts each row by column on AddRow, which is what
// satisfies sparsematrix's row ordering invariant.
func mergeEntriesByColumn[V numeric.Value](entries []sparsematrix.Entry[V]) []sparsematrix.Entry[V] {
	if len(entries) < 2 {
		return entries
	}
	byCol := make(map[int]int, len(entries)) // column -> index into out
	var out []sparsematrix.Entry[V]
	for _, e := range entries {
		if idx, ok := byCol[e.Col]; ok {
			out[idx].Val = out[idx].Val.Add(e.Val).(V)
			continue
		}
		byCol[e.Col] = len(out)
		out = append(out, e)
	}
	return out
}
