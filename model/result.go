package model

import "github.com/probmc/mdpcore/bitset"

// Scheduler is a memoryless deterministic scheduler: a flat array of
// local choice indices, one per state, indexing within that state's row
// group (spec.md §9 "Scheduler encoding" design note — a flat array, not
// a map, so building A_σ is an O(n) row selection).
type Scheduler []uint64

// CheckResultKind discriminates the three shapes a query can return
// (spec.md §6).
type CheckResultKind int

const (
	ResultQualitative CheckResultKind = iota
	ResultQuantitative
	ResultParetoApproximation
)

// CheckResult is the core's output (spec.md §6). Exactly one of
// Qualitative/Quantitative/Pareto is meaningful, selected by Kind.
type CheckResult struct {
	Kind CheckResultKind

	// Qualitative holds the state set of an atomic-label or Boolean
	// formula. Every other query, including an until query whose
	// maybe-set is empty at the initial states, returns a
	// ResultQuantitative vector; Options.QualitativeOnly is not read.
	Qualitative *bitset.Set

	// Quantitative holds one value per state for a numeric query.
	Quantitative []float64

	// Pareto holds a Pareto-mode result; ParetoResult is defined in
	// package multiobj and referenced here as interface{} to avoid a
	// model->multiobj->model import cycle (multiobj imports model).
	// Callers type-assert to *multiobj.ParetoResult.
	Pareto interface{}

	// Scheduler is populated when Options.ProduceScheduler was set and
	// the query kind supports scheduler synthesis.
	Scheduler Scheduler
}
