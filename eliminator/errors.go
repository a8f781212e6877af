// Package eliminator implements C5: collapsing every maximal end
// component of a zero-reward subsystem into a single representative
// state, producing a translation back to the original matrix's rows and
// states.
//
// Grounded on flow/dinic.go's "build a transformed graph structure,
// hand back translation maps alongside it" shape (dinic's
// buildCoreResidualFromCapMap), generalized from flow residual-capacity
// bookkeeping to end-component collapse bookkeeping.
package eliminator

import "errors"

var (
	// ErrDimensionMismatch is returned when a mask's length disagrees
	// with the matrix's state or row count.
	ErrDimensionMismatch = errors.New("eliminator: dimension mismatch")

	// ErrInvalidArgument is returned for structurally invalid input.
	ErrInvalidArgument = errors.New("eliminator: invalid argument")
)
