// SPDX-License-Identifier: MIT
// Package sparsematrix - public API facades.
//
// Purpose:
//   - Provide thin, documented entry points for the pure operations
//     spec.md §4.2 names.
//   - Facades never change loop order or numeric policy; they delegate
//     to the kernels in this file and validate shapes up front.
package sparsematrix

import (
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
)

// Transpose returns A^T with trivial row grouping (one row per original
// column / state). If keepZeroGroups is true, states with no incoming
// transitions still appear as empty rows in the result (used when
// backward-transitions must be state-indexed for the graph-analysis
// backward BFS of C4).
//
// Complexity: Time O(nnz + n), Space O(nnz + n).
func (m *Matrix[V]) Transpose(keepZeroGroups bool) *Matrix[V] {
	numNewRows := m.numCols

	counts := make([]int, numNewRows)
	for _, c := range m.columns {
		counts[c]++
	}

	// keepRow[c] selects which original columns survive as rows of the
	// transposed matrix: all of them when keepZeroGroups, else only
	// those with at least one incoming transition.
	keepRow := make([]bool, numNewRows)
	newIndexOf := make([]int, numNewRows)
	survivors := 0
	for c := 0; c < numNewRows; c++ {
		if keepZeroGroups || counts[c] > 0 {
			keepRow[c] = true
			newIndexOf[c] = survivors
			survivors++
		}
	}

	rowPtr := make([]int, survivors+1)
	for c := 0; c < numNewRows; c++ {
		if keepRow[c] {
			rowPtr[newIndexOf[c]+1] = rowPtr[newIndexOf[c]] + counts[c]
		}
	}
	values := make([]V, len(m.values))
	columns := make([]int, len(m.columns))
	cursor := make([]int, numNewRows)
	for c := 0; c < numNewRows; c++ {
		if keepRow[c] {
			cursor[c] = rowPtr[newIndexOf[c]]
		}
	}

	// Appending in ascending original-row order r for a fixed target
	// column c keeps each transposed row's columns (the old row index)
	// in ascending order, so no post-sort is needed.
	for r := 0; r < m.NumRows(); r++ {
		lo, hi := m.rowPtr[r], m.rowPtr[r+1]
		for i := lo; i < hi; i++ {
			c := m.columns[i]
			pos := cursor[c]
			values[pos] = m.values[i]
			columns[pos] = r
			cursor[c]++
		}
	}

	grp := make([]int, survivors+1)
	for i := range grp {
		grp[i] = i
	}

	return &Matrix[V]{
		values:  values,
		columns: columns,
		rowPtr:  rowPtr,
		grp:     grp,
		numCols: m.NumRows(),
		kind:    m.kind,
	}
}

// Submatrix restricts the matrix to the rows selected by choiceMask (a
// per-row mask the caller derives, typically "keep every row of a
// selected state, or only the scheduler-selected row") for the states in
// stateMask, renumbering states and columns contiguously through
// stateMask. keepSelfLoops controls whether probability mass that would
// otherwise point at a removed column is retained as a self-loop on the
// renumbered row's own state (used by EC elimination's internal-choice
// bookkeeping) or silently dropped (the default for qualitative/maybe-set
// submatrices, where such mass is redirected by the caller's b vector
// instead).
//
// Rows that choiceMask selects for states outside stateMask are
// ignored. Fails with ErrInvalidArgument if a state in stateMask has
// zero selected rows.
func (m *Matrix[V]) Submatrix(stateMask *bitset.Set, choiceMask *bitset.Set, keepSelfLoops bool) (*Matrix[V], error) {
	if stateMask.Len() != m.NumStates() {
		return nil, fmt.Errorf("sparsematrix: Submatrix state mask length %d != %d: %w", stateMask.Len(), m.NumStates(), ErrDimensionMismatch)
	}
	if choiceMask.Len() != m.NumRows() {
		return nil, fmt.Errorf("sparsematrix: Submatrix choice mask length %d != %d: %w", choiceMask.Len(), m.NumRows(), ErrDimensionMismatch)
	}

	oldToNew := make([]int, m.NumStates())
	for i := range oldToNew {
		oldToNew[i] = -1
	}
	newToOld := make([]int, 0, stateMask.Count())
	stateMask.ForEachSet(func(s int) bool {
		oldToNew[s] = len(newToOld)
		newToOld = append(newToOld, s)
		return true
	})

	b := NewBuilder[V](stateMask.Count(), m.kind)
	for news, olds := range newToOld {
		lo, hi := m.grp[olds], m.grp[olds+1]
		rowsAdded := 0
		for r := lo; r < hi; r++ {
			if !choiceMask.Test(r) {
				continue
			}
			entries := m.Row(r)
			var out []Entry[V]
			selfMass := numeric.ZeroOf(m.kind).(V)
			for _, e := range entries {
				if oldToNew[e.Col] >= 0 {
					out = append(out, Entry[V]{Col: oldToNew[e.Col], Val: e.Val})
				} else if keepSelfLoops {
					selfMass = selfMass.Add(e.Val).(V)
				}
			}
			if keepSelfLoops && !selfMass.IsZero() {
				out = mergeSelfLoop(out, news, selfMass)
			}
			b.AddRow(out)
			rowsAdded++
		}
		if rowsAdded == 0 {
			return nil, fmt.Errorf("sparsematrix: Submatrix state %d has no selected choices: %w", olds, ErrInvalidArgument)
		}
		b.EndState()
	}
	return b.Build(false)
}

func mergeSelfLoop[V numeric.Value](row []Entry[V], self int, mass V) []Entry[V] {
	for i, e := range row {
		if e.Col == self {
			row[i].Val = e.Val.Add(mass).(V)
			return row
		}
	}
	row = append(row, Entry[V]{Col: self, Val: mass})
	insertionSortByCol(row)
	return row
}

// RowGroupConstrainedSum returns a per-row vector whose entry at row r
// (for r belonging to a group in stateMask) is Σ_{c ∈ columnMask}
// A(r, c). Rows outside stateMask are left at the zero value.
func (m *Matrix[V]) RowGroupConstrainedSum(stateMask *bitset.Set, columnMask *bitset.Set) []V {
	out := make([]V, m.NumRows())
	zero := numeric.ZeroOf(m.kind).(V)
	for i := range out {
		out[i] = zero
	}
	stateMask.ForEachSet(func(s int) bool {
		lo, hi := m.grp[s], m.grp[s+1]
		for r := lo; r < hi; r++ {
			acc := zero
			rlo, rhi := m.rowPtr[r], m.rowPtr[r+1]
			for i := rlo; i < rhi; i++ {
				if columnMask.Test(m.columns[i]) {
					acc = acc.Add(m.values[i]).(V)
				}
			}
			out[r] = acc
		}
		return true
	})
	return out
}

// Multiply computes result[r] = Σ_c A(r,c)·x[c] + add[r] (add may be
// nil, treated as all-zero). len(x) must equal NumCols(); result is
// allocated fresh with length NumRows().
func (m *Matrix[V]) Multiply(x []V, add []V) ([]V, error) {
	if len(x) != m.numCols {
		return nil, fmt.Errorf("sparsematrix: Multiply: len(x)=%d != NumCols()=%d: %w", len(x), m.numCols, ErrDimensionMismatch)
	}
	if add != nil && len(add) != m.NumRows() {
		return nil, fmt.Errorf("sparsematrix: Multiply: len(add)=%d != NumRows()=%d: %w", len(add), m.NumRows(), ErrDimensionMismatch)
	}
	zero := numeric.ZeroOf(m.kind).(V)
	out := make([]V, m.NumRows())
	for r := 0; r < m.NumRows(); r++ {
		acc := zero
		lo, hi := m.rowPtr[r], m.rowPtr[r+1]
		for i := lo; i < hi; i++ {
			acc = acc.Add(m.values[i].Mul(x[m.columns[i]])).(V)
		}
		if add != nil {
			acc = acc.Add(add[r]).(V)
		}
		out[r] = acc
	}
	return out, nil
}

// ConvertToEquationSystem transforms the matrix in place into I - A for
// the *state-indexed* rows (NumRows() must equal NumStates(), i.e. the
// matrix is trivially grouped and already one row per state, typically
// produced by selecting one choice per group via a Scheduler): sets the
// diagonal of row s to 1 - A(s,s) and negates every off-diagonal entry,
// forming the left-hand side of (I - A)x = b.
func (m *Matrix[V]) ConvertToEquationSystem() error {
	if !m.IsTriviallyGrouped() {
		return fmt.Errorf("sparsematrix: ConvertToEquationSystem requires trivial grouping: %w", ErrInvalidArgument)
	}
	one := numeric.OneOf(m.kind).(V)
	for s := 0; s < m.NumRows(); s++ {
		lo, hi := m.rowPtr[s], m.rowPtr[s+1]
		found := false
		for i := lo; i < hi; i++ {
			if m.columns[i] == s {
				m.values[i] = one.Sub(m.values[i]).(V)
				found = true
			} else {
				m.values[i] = numeric.ZeroOf(m.kind).(V).Sub(m.values[i]).(V)
			}
		}
		if !found {
			// insert an explicit diagonal of 1 to keep I - A dense on the
			// diagonal even when A had no self-loop at s.
			m.insertDiagonal(s, one)
		}
	}
	return nil
}

// insertDiagonal inserts value v at (row, row), preserving column order.
// Used only by ConvertToEquationSystem, where row counts are small
// (substochastic row fan-out), so a slice insert is acceptable.
func (m *Matrix[V]) insertDiagonal(row int, v V) {
	lo, hi := m.rowPtr[row], m.rowPtr[row+1]
	pos := hi
	for i := lo; i < hi; i++ {
		if m.columns[i] > row {
			pos = i
			break
		}
	}
	m.columns = append(m.columns, 0)
	copy(m.columns[pos+1:], m.columns[pos:])
	m.columns[pos] = row

	m.values = append(m.values, v)
	copy(m.values[pos+1:], m.values[pos:])
	m.values[pos] = v

	for i := row + 1; i < len(m.rowPtr); i++ {
		m.rowPtr[i]++
	}
}
