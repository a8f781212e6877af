package model

import (
	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// Model is the read-only input borrowed by the core for the duration of
// one query (spec.md §3/§6). The caller owns it; the core never mutates
// it and never retains a reference past the end of the query.
type Model[V numeric.Value] struct {
	// Transitions is the row-grouped substochastic transition matrix:
	// Transitions.Grp()[s]..Grp()[s+1] are the choices available in
	// state s, each choice's row summing to 1.
	Transitions *sparsematrix.Matrix[V]

	// Initial is the set of initial states. Must be non-empty.
	Initial *bitset.Set

	// Labels maps an atomic-proposition name to the set of states
	// carrying it. Every bit set has length Transitions.NumStates().
	Labels map[string]*bitset.Set

	// Rewards maps a reward-model name to its RewardModel. May be empty.
	Rewards map[string]*RewardModel[V]

	// ChoiceLabels optionally maps a choice (row index) to a set of
	// action-label names, consumed only by the counterexample
	// collaborator (out of scope here) and otherwise inert.
	ChoiceLabels map[int][]string
}

// NumStates returns the number of states in the model.
func (m *Model[V]) NumStates() int { return m.Transitions.NumStates() }

// NumChoices returns the number of choices (rows) in the model.
func (m *Model[V]) NumChoices() int { return m.Transitions.NumRows() }

// RewardModel is a named reward structure (spec.md §3). At least one of
// StateRewards/ChoiceRewards must be non-nil; TransitionRewards, if
// present, is reducible to ChoiceRewards by row-weighted sum (see
// RewardModel.ReduceTransitionRewards).
type RewardModel[V numeric.Value] struct {
	// StateRewards has length NumStates when non-nil.
	StateRewards []V

	// ChoiceRewards has length NumChoices when non-nil.
	ChoiceRewards []V

	// TransitionRewards, when present, is congruent with Transitions:
	// same row/column structure, reducible to a per-choice reward by
	// Σ_c P(r,c)·reward(r,c).
	TransitionRewards *sparsematrix.Matrix[V]
}

// ReduceTransitionRewards folds TransitionRewards into a fresh per-choice
// reward vector of length numChoices by taking, for every choice r, the
// probability-weighted sum of the transition rewards leaving r. It is a
// no-op (returns nil) when TransitionRewards is nil.
func (rm *RewardModel[V]) ReduceTransitionRewards(probabilities *sparsematrix.Matrix[V], zero V) []V {
	if rm.TransitionRewards == nil {
		return nil
	}
	numChoices := rm.TransitionRewards.NumRows()
	out := make([]V, numChoices)
	for r := 0; r < numChoices; r++ {
		acc := zero
		probRow := probabilities.Row(r)
		rewRow := rm.TransitionRewards.Row(r)
		// Both rows are sorted by column; merge-walk them.
		pi, ri := 0, 0
		for pi < len(probRow) && ri < len(rewRow) {
			switch {
			case probRow[pi].Col == rewRow[ri].Col:
				acc = acc.Add(probRow[pi].Val.Mul(rewRow[ri].Val)).(V)
				pi++
				ri++
			case probRow[pi].Col < rewRow[ri].Col:
				pi++
			default:
				ri++
			}
		}
		out[r] = acc
	}
	return out
}

// OptimizationDirection is Min or Max, carried by every formula operator
// (spec.md §6).
type OptimizationDirection int

const (
	Min OptimizationDirection = iota
	Max
)

// ComparisonType is the relation in a formula Bound (spec.md §6).
type ComparisonType int

const (
	LessEqual ComparisonType = iota
	LessThan
	GreaterEqual
	GreaterThan
)

// Bound is an optional threshold attached to a formula operator.
type Bound struct {
	Comparison ComparisonType
	Threshold  float64
}

// FormulaKind enumerates the PCTL/reward/multi-objective operator
// shapes the engine accepts (spec.md §6).
type FormulaKind int

const (
	KindAtomicLabel FormulaKind = iota
	KindBooleanLiteral
	KindNot
	KindAnd
	KindOr
	KindNext
	KindUntil
	KindBoundedUntil
	KindGlobally
	KindEventually
	KindCumulativeReward
	KindInstantaneousReward
	KindTotalReward
	KindReachabilityReward
	KindLongRunAverage
	KindConditional
	KindMultiObjective
)

// Formula is the AST node type every PCTL/reward/multi-objective query
// is built from. Not every field is meaningful for every Kind; see the
// per-Kind comments below.
type Formula struct {
	Kind FormulaKind

	// Direction is meaningful for every probability/reward/LRA operator.
	Direction OptimizationDirection

	// Bound is the optional threshold (nil when the query asks for a
	// quantitative value rather than a Boolean satisfaction result).
	Bound *Bound

	// Label names an atomic proposition (KindAtomicLabel).
	Label string

	// Left/Right are sub-formulas: And/Or/Until's two operands, Not's
	// single operand (Left only), Next/Globally/Eventually's operand
	// (Left only).
	Left, Right *Formula

	// StepBound is the k in bounded-until / cumulative / instantaneous
	// (KindBoundedUntil, KindCumulativeReward, KindInstantaneousReward).
	// A negative value is invalid (ErrInvalidArgument).
	StepBound int64
	HasStepBound bool

	// RewardModelName names the reward model for reward operators.
	RewardModelName string

	// Objectives holds the sub-formulas of a KindMultiObjective query,
	// each itself a Formula of probability/reward kind carrying its own
	// Direction and optional Bound.
	Objectives []Formula

	// MultiObjectiveQuery selects Achievability/Quantitative/Pareto mode
	// for KindMultiObjective.
	MultiObjectiveQuery MultiObjectiveQueryKind

	// OptimizingObjective selects which Objectives[i] is the one being
	// optimized in Quantitative mode.
	OptimizingObjective int
}

// MultiObjectiveQueryKind selects the three query shapes of spec.md §4.8.
type MultiObjectiveQueryKind int

const (
	Achievability MultiObjectiveQueryKind = iota
	Quantitative
	Pareto
)
