package sparsematrix

import (
	"testing"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/stretchr/testify/require"
)

// TestSubmatrixPreservesLocalChoiceIndices checks the property package
// pctl's scheduler assembly depends on (spec.md §9 "Scheduler encoding"):
// when choiceMask selects every row of every state in stateMask,
// Submatrix's renumbered row groups preserve the original within-group
// row order 1:1, so a local choice index returned by a solver run on the
// submatrix means the same choice on the original matrix without any
// translation table.
func TestSubmatrixPreservesLocalChoiceIndices(t *testing.T) {
	m := threeStateMDP(t)
	states := bitset.FromSlice(3, []int{0, 1})
	// Every row of both selected states' groups, in original order —
	// exactly the shape pctl.fullChoiceMaskOver builds.
	choices := bitset.New(4).Set(0).Set(1).Set(2)
	sub, err := m.Submatrix(states, choices, true)
	require.NoError(t, err)

	// Row-group boundaries land at the same offsets as the original
	// matrix restricted to states {0,1}: 2 rows for state 0, 1 for
	// state 1 — the original's own group structure, not renumbered.
	require.Equal(t, []int{0, 2, 3}, sub.Grp())

	// Row 0 (state 0's c0) has both successors inside the kept state
	// set, so it survives unchanged under the identity renumbering.
	require.Equal(t, m.Row(0), sub.Row(0))

	// Row 1 (state 0's c1) points entirely at state 2, which falls
	// outside stateMask; with keepSelfLoops its mass becomes a
	// self-loop on row 1's own (renumbered) state, 0 — it does not
	// vanish, and crucially it stays at local row index 1 within state
	// 0's group, the same local index it had in the original matrix.
	require.Equal(t, []Entry[numeric.Float64]{{Col: 0, Val: 1.0}}, sub.Row(1))

	// Row 2 (state 1's only choice) stays a self-loop on its own
	// (renumbered) state, 1.
	require.Equal(t, []Entry[numeric.Float64]{{Col: 1, Val: 1.0}}, sub.Row(2))
}
