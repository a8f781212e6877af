package multiobj

import (
	"context"
	"fmt"
	"math"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/eliminator"
	"github.com/probmc/mdpcore/minmax"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// augmented is the product model spec.md §4.8's weighted-sum step is
// solved on: state (s, mask), mask a k-bit word recording which
// objectives have already resolved along the current path. An objective
// stops contributing reward once its bit is set, so a single linear
// objective — the weighted sum — correctly captures k objectives with
// independent target/absorption conditions at once, something a single
// reward function on the bare state space cannot express when the
// objectives' target sets differ. No retrieval-pack precedent; grounded
// only in the teacher's row-grouped-matrix construction style (c.f.
// eliminator.Eliminate building a fresh Matrix via sparsematrix.Builder
// from a translation table).
type augmented struct {
	trans     *sparsematrix.Matrix[numeric.Float64]
	fullMask  int   // 1<<k - 1
	maskOfAug []int // augmented state -> mask
	origRow   []int // augmented row -> original trans row, -1 for a synthetic absorbing self-loop
}

func augIndex(s, mask, full int) int { return s*(full+1) + mask }

// buildAugmented constructs the product matrix for a weighted-sum query
// over objs. It carries no rewards: the per-objective step rewards
// (objectiveStepReward) are computed once in Run and applied per row by
// foldWeighted.
func buildAugmented[V numeric.Value](trans *sparsematrix.Matrix[V], objs []Objective[V]) (*augmented, error) {
	n := trans.NumStates()
	k := len(objs)
	full := (1 << k) - 1
	numAug := n * (full + 1)

	b := sparsematrix.NewBuilder[numeric.Float64](numAug, numeric.KindFloat64)
	maskOfAug := make([]int, 0, numAug)
	var origRow []int
	grp := trans.Grp()

	for s := 0; s < n; s++ {
		for mask := 0; mask <= full; mask++ {
			maskOfAug = append(maskOfAug, mask)
			if mask == full {
				b.AddRow([]sparsematrix.Entry[numeric.Float64]{{Col: augIndex(s, full, full), Val: numeric.Float64(1)}})
				origRow = append(origRow, -1)
				b.EndState()
				continue
			}
			lo, hi := grp[s], grp[s+1]
			for r := lo; r < hi; r++ {
				row := trans.Row(r)
				out := make([]sparsematrix.Entry[numeric.Float64], 0, len(row))
				for _, e := range row {
					out = append(out, sparsematrix.Entry[numeric.Float64]{
						Col: augIndex(e.Col, nextMask(mask, e.Col, objs), full),
						Val: numeric.Float64(e.Val.Float64()),
					})
				}
				b.AddRow(out)
				origRow = append(origRow, r)
			}
			b.EndState()
		}
	}

	m, err := b.Build(false)
	if err != nil {
		return nil, fmt.Errorf("multiobj: buildAugmented: %w", err)
	}
	return &augmented{trans: m, fullMask: full, maskOfAug: maskOfAug, origRow: origRow}, nil
}

// nextMask reports the successor mask reached by a transition into
// state target, given the predecessor's mask: any objective not yet
// resolved whose Target contains target resolves now, for both
// ObjectiveProbability (reaching its target is the whole point) and
// ObjectiveReward (spec.md §4.7's reachability-reward semantics: no
// further accrual past the target, carried unchanged into the product
// space).
func nextMask[V numeric.Value](mask int, target int, objs []Objective[V]) int {
	next := mask
	for i, obj := range objs {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		if obj.Target.Test(target) {
			next |= 1 << uint(i)
		}
	}
	return next
}

// foldWeighted computes the combined per-row reward Σ_i direction-signed
// w_i times objective i's raw step contribution, evaluated against each
// row's own mask so a resolved objective contributes nothing. zero marks
// every row whose combined reward is exactly zero — the
// eliminator.Eliminate zeroRewardActions input, used to collapse end
// components a weighted-sum optimum would otherwise want to loop in
// forever for no actual gain (spec.md §4.8).
func foldWeighted[V numeric.Value](aug *augmented, stepRewards [][]float64, w []float64, signs []float64) ([]numeric.Float64, *bitset.Set) {
	numRows := aug.trans.NumRows()
	out := make([]numeric.Float64, numRows)
	zero := bitset.New(numRows)
	full := aug.fullMask
	grp := aug.trans.Grp()

	for augState := 0; augState < aug.trans.NumStates(); augState++ {
		mask := aug.maskOfAug[augState]
		if mask == full {
			continue
		}
		for r := grp[augState]; r < grp[augState+1]; r++ {
			orig := aug.origRow[r]
			acc := 0.0
			for i := range stepRewards {
				if mask&(1<<uint(i)) != 0 {
					continue
				}
				acc += signs[i] * w[i] * stepRewards[i][orig]
			}
			out[r] = numeric.Float64(acc)
			if math.Abs(acc) < 1e-15 {
				zero.Set(r)
			}
		}
	}
	return out, zero
}

// weightedSumSolve computes, for initial state s0 and a normalized
// weight vector w (Σw_i = 1, w_i >= 0), the optimal expected weighted
// sum Σ_i w_i·sign_i·value_i(objs[i]) reachable from s0 (sign_i flips a
// Min objective's contribution so the sum is always maximized), plus the
// individual per-objective values achieved by the resulting scheduler.
// Grounded on pctl.ReachabilityReward's shape (solve a single MinMax
// equation system via model.MinMaxLinearEquationSolverFactory) composed
// with eliminator.Eliminate for the zero-weighted end components the
// product space can introduce (spec.md §4.8 "uses C5 to eliminate
// zero-weighted ECs and C6 to solve").
func weightedSumSolve[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], s0 int, objs []Objective[V], stepRewards [][]float64, w []float64, precision float64) (combined float64, perObjective []float64, err error) {
	aug, err := buildAugmented(trans, objs)
	if err != nil {
		return 0, nil, err
	}
	k := len(objs)
	full := aug.fullMask
	numAug := aug.trans.NumStates()

	signs := make([]float64, k)
	for i, obj := range objs {
		signs[i] = directionSign(obj.Direction)
	}
	combinedReward, zeroChoices := foldWeighted(aug, stepRewards, w, signs)

	S := bitset.NewFull(numAug)
	possiblyRecurrent := bitset.NewFull(numAug)
	elim, err := eliminator.Eliminate(aug.trans, S, zeroChoices, possiblyRecurrent)
	if err != nil {
		return 0, nil, fmt.Errorf("multiobj: weightedSumSolve: eliminate: %w", err)
	}

	elimReward := make([]numeric.Float64, elim.Matrix.NumRows())
	for newRow, oldRow := range elim.NewToOldRow {
		if oldRow >= 0 {
			elimReward[newRow] = combinedReward[oldRow]
		}
	}

	opts := model.NewOptions(model.WithPrecision(precision))
	factory := minmax.SolverFactory[numeric.Float64]{}
	solver, err := factory.New(elim.Matrix, opts)
	if err != nil {
		return 0, nil, err
	}
	res, err := solver.Solve(ctx, model.Max, nil, elimReward)
	if err != nil {
		return 0, nil, err
	}

	initAug := augIndex(s0, 0, full)
	newInit := elim.OldToNewState[initAug]
	if newInit < 0 {
		return 0, nil, fmt.Errorf("multiobj: weightedSumSolve: initial state was eliminated unexpectedly")
	}
	combined = res.X[newInit].Float64()

	perObjective = make([]float64, k)
	for i := range objs {
		v, evalErr := evaluateObjectiveUnderScheduler(ctx, aug, elim, res.Scheduler, initAug, stepRewards[i])
		if evalErr != nil {
			return 0, nil, evalErr
		}
		perObjective[i] = v
	}
	return combined, perObjective, nil
}

// evaluateObjectiveUnderScheduler re-evaluates one objective's own
// (unweighted, direction-unsigned) expected value under the scheduler
// the combined weighted-sum solve returned: restrict the eliminated
// matrix to exactly the one chosen choice per state via
// sparsematrix.Matrix.Submatrix, convert to (I - A) form, and solve the
// resulting deterministic linear system with minmax.GonumSolverFactory —
// the standard multi-objective technique of fixing a policy once and
// then checking every objective's value against the induced Markov
// chain independently.
func evaluateObjectiveUnderScheduler(ctx context.Context, aug *augmented, elim *eliminator.Result[numeric.Float64], sched model.Scheduler, initAug int, raw []float64) (float64, error) {
	m := elim.Matrix
	numStates := m.NumStates()
	grp := m.Grp()
	stateMask := bitset.NewFull(numStates)
	choiceMask := bitset.New(m.NumRows())
	chosenRow := make([]int, numStates)
	for s := 0; s < numStates; s++ {
		lo, hi := grp[s], grp[s+1]
		local := 0
		if sched != nil && s < len(sched) {
			local = int(sched[s])
		}
		r := lo + local
		if r < lo || r >= hi {
			r = lo
		}
		chosenRow[s] = r
		choiceMask.Set(r)
	}

	sub, err := m.Submatrix(stateMask, choiceMask, true)
	if err != nil {
		return 0, fmt.Errorf("multiobj: evaluateObjectiveUnderScheduler: %w", err)
	}
	reward := make([]numeric.Float64, numStates)
	for s, r := range chosenRow {
		if augRow := elim.NewToOldRow[r]; augRow >= 0 {
			if orig := aug.origRow[augRow]; orig >= 0 {
				reward[s] = numeric.Float64(raw[orig])
			}
		}
	}
	if err := sub.ConvertToEquationSystem(); err != nil {
		return 0, fmt.Errorf("multiobj: evaluateObjectiveUnderScheduler: %w", err)
	}

	solver, err := (minmax.GonumSolverFactory[numeric.Float64]{}).New(sub)
	if err != nil {
		return 0, fmt.Errorf("multiobj: evaluateObjectiveUnderScheduler: %w", err)
	}
	x, err := solver.Solve(ctx, reward)
	if err != nil {
		return 0, fmt.Errorf("multiobj: evaluateObjectiveUnderScheduler: %w", err)
	}

	newInit := elim.OldToNewState[initAug]
	if newInit < 0 || newInit >= len(x) {
		return 0, fmt.Errorf("multiobj: evaluateObjectiveUnderScheduler: initial state out of range")
	}
	return x[newInit].Float64(), nil
}
