package multiobj

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPolytopeSandwichInvariant checks the property the refinement loop
// in driver.go depends on at every step (spec.md §4.8): under, built
// only from points the solver actually achieved, must always sit inside
// over, built only from halfspaces the solver proved the achievable
// region cannot cross — so under's vertices never violate one of over's
// constraints, and the Hausdorff-like Gap between the two never grows as
// more refinement points/halfspaces are added.
func TestPolytopeSandwichInvariant(t *testing.T) {
	under := NewEmptyUnder(2)
	over := NewUniverseOver(2)

	steps := []struct {
		vertex Point
		h      Halfspace
	}{
		{Point{Value: []float64{1, 0}}, Halfspace{W: []float64{1, 0}, Bound: 1}},
		{Point{Value: []float64{0, 1}}, Halfspace{W: []float64{0, 1}, Bound: 1}},
		{Point{Value: []float64{0.55, 0.55}}, Halfspace{W: []float64{0.5, 0.5}, Bound: 0.55}},
	}

	prevGap := Gap(under, over)
	for _, s := range steps {
		under = under.WithVertex(s.vertex)
		over = over.IntersectHalfspace(s.h)

		for _, v := range under.Vertices() {
			require.True(t, over.Contains(v), "under vertex %v escaped over", v.Value)
		}

		gap := Gap(under, over)
		require.LessOrEqual(t, gap, prevGap+1e-9, "gap must not increase as the sandwich tightens")
		prevGap = gap
	}
}

// TestPolytopeWithVertexPrunesDominated checks that adding a
// dominated point is a no-op on the vertex set, and that adding a point
// dominating an existing one removes the weaker vertex — the downward
// closure's maximal-frontier invariant WithVertex documents.
func TestPolytopeWithVertexPrunesDominated(t *testing.T) {
	p := NewEmptyUnder(2).WithVertex(Point{Value: []float64{0.5, 0.5}})
	require.Len(t, p.Vertices(), 1)

	dominated := p.WithVertex(Point{Value: []float64{0.2, 0.2}})
	require.Len(t, dominated.Vertices(), 1)
	require.Equal(t, 0.5, dominated.Vertices()[0].Value[0])

	dominates := p.WithVertex(Point{Value: []float64{0.9, 0.9}})
	require.Len(t, dominates.Vertices(), 1)
	require.Equal(t, 0.9, dominates.Vertices()[0].Value[0])
}
