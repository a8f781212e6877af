package multiobj

import (
	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
)

// ObjectiveKind selects whether a sub-objective is a reachability
// probability or a reachability reward (spec.md §4.8 preprocessing:
// "each sub-objective (probability or reward operator...)").
type ObjectiveKind int

const (
	ObjectiveProbability ObjectiveKind = iota
	ObjectiveReward
)

// Objective is one sub-objective of a multi-objective query, in
// user-facing terms: a probability or reward reachability query with a
// direction and an optional threshold for achievability mode.
type Objective[V numeric.Value] struct {
	Kind ObjectiveKind

	// Direction is the user's intended sense: Max wants the largest
	// achievable probability/reward, Min the smallest.
	Direction model.OptimizationDirection

	// Target is the ψ-set this objective's path formula resolves at:
	// reaching Target earns probability mass 1 (ObjectiveProbability)
	// or stops further reward accrual (ObjectiveReward).
	Target *bitset.Set

	// RewardModel supplies the per-choice reward for ObjectiveReward;
	// ignored (must be nil) for ObjectiveProbability, whose implicit
	// reward is the indicator of "this choice enters Target".
	RewardModel *model.RewardModel[V]

	// Threshold/Strict are consumed only by achievability mode: the
	// user wants Direction-value(Objective) {>=,>,<=,<} Threshold
	// according to Direction and Strict.
	Threshold float64
	Strict    bool
}

// QueryKind selects the three shapes spec.md §4.8 describes.
type QueryKind int

const (
	Achievability QueryKind = iota
	Quantitative
	Pareto
)

// Query is one multi-objective check: a set of Objectives plus the
// QueryKind-specific parameters.
type Query[V numeric.Value] struct {
	Objectives []Objective[V]
	Kind       QueryKind

	// OptimizingObjective selects which Objectives[i] is optimized in
	// Quantitative mode; ignored otherwise.
	OptimizingObjective int
}

// Result is the driver's answer.
type Result struct {
	// Achievable is meaningful for QueryKind Achievability.
	Achievable bool

	// Value is the extremal value found for QueryKind Quantitative, in
	// user-space units (after the objective's sign/affine transform is
	// undone).
	Value float64

	// Pareto is populated for QueryKind Pareto.
	Pareto *ParetoResult

	// RefinementSteps is the number of weighted-sum checker calls the
	// driver issued.
	RefinementSteps uint64
}

// ParetoResult is the model.CheckResult.Pareto payload this package
// produces; model references it only as interface{} to avoid an import
// cycle (model cannot import multiobj).
type ParetoResult struct {
	Under *Polytope
	Over  *Polytope
}
