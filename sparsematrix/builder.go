package sparsematrix

import (
	"fmt"
	"math"

	"github.com/probmc/mdpcore/numeric"
)

// Builder accumulates rows state-by-state into a Matrix, enforcing
// row-group contiguity and (optionally) the substochastic invariant at
// Build() time, following the teacher's "accumulate then validate
// fail-fast at finalize" discipline (matrix/builder.go's applyMetricClosure
// pattern of validate-then-execute in numbered stages).
type Builder[V numeric.Value] struct {
	kind       numeric.Kind
	numCols    int
	values     []V
	columns    []int
	rowPtr     []int
	grp        []int
	curGroupOK bool
	eps        float64
}

// NewBuilder starts a Builder for a matrix with numCols columns (states),
// whose values are instantiated at the given numeric.Kind.
func NewBuilder[V numeric.Value](numCols int, kind numeric.Kind) *Builder[V] {
	return &Builder[V]{
		kind:    kind,
		numCols: numCols,
		rowPtr:  []int{0},
		grp:     []int{0},
		eps:     1e-9,
	}
}

// WithEpsilon overrides the tolerance used by the substochastic check in
// Build.
func (b *Builder[V]) WithEpsilon(eps float64) *Builder[V] {
	b.eps = eps
	return b
}

// AddRow appends one choice row. entries need not be pre-sorted; AddRow
// sorts them by column before storing so Row()/At() can rely on sorted
// order. Returns the new row's index.
func (b *Builder[V]) AddRow(entries []Entry[V]) int {
	sorted := append([]Entry[V](nil), entries...)
	insertionSortByCol(sorted)
	for _, e := range sorted {
		b.values = append(b.values, e.Val)
		b.columns = append(b.columns, e.Col)
	}
	b.rowPtr = append(b.rowPtr, len(b.values))
	return len(b.rowPtr) - 2
}

// insertionSortByCol sorts small per-row entry slices; choice fan-out is
// small in practice (bounded by branching factor), so insertion sort
// avoids pulling in sort.Slice's interface overhead on the hot ingestion
// path.
func insertionSortByCol[V numeric.Value](e []Entry[V]) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && e[j].Col < e[j-1].Col; j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

// EndState closes the current row group at the current row count,
// starting a new state. Must be called once per state, after that
// state's AddRow calls and before the next state's.
func (b *Builder[V]) EndState() {
	b.grp = append(b.grp, len(b.rowPtr)-1)
}

// Build finalizes the matrix, validating that every row is substochastic
// (nonnegative entries, Σ ≤ 1+eps) and that no state has an empty group.
// Pass strict=false to skip the substochastic check (used for reward
// "matrices" and other non-probabilistic callers of this structure).
func (b *Builder[V]) Build(strict bool) (*Matrix[V], error) {
	m := &Matrix[V]{
		values:  b.values,
		columns: b.columns,
		rowPtr:  b.rowPtr,
		grp:     b.grp,
		numCols: b.numCols,
		kind:    b.kind,
	}
	if err := m.validateShape(); err != nil {
		return nil, err
	}
	if strict {
		if err := b.checkSubstochastic(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (b *Builder[V]) checkSubstochastic(m *Matrix[V]) error {
	for r := 0; r < m.NumRows(); r++ {
		lo, hi := m.rowPtr[r], m.rowPtr[r+1]
		sum := 0.0
		for i := lo; i < hi; i++ {
			v := m.values[i].Float64()
			if v < -b.eps {
				return fmt.Errorf("sparsematrix: row %d col %d negative probability %v: %w", r, m.columns[i], v, ErrNotSubstochastic)
			}
			sum += v
		}
		if sum > 1+b.eps || math.IsNaN(sum) {
			return fmt.Errorf("sparsematrix: row %d sums to %v: %w", r, sum, ErrNotSubstochastic)
		}
	}
	return nil
}

// NewTriviallyGrouped builds a matrix directly from a slice of rows with
// one choice per state (Grp[s] = s), skipping the Builder's incremental
// EndState protocol. Convenient for reward "matrices" and test fixtures.
func NewTriviallyGrouped[V numeric.Value](numCols int, kind numeric.Kind, rows [][]Entry[V], strict bool) (*Matrix[V], error) {
	b := NewBuilder[V](numCols, kind)
	for _, row := range rows {
		b.AddRow(row)
		b.EndState()
	}
	return b.Build(strict)
}
