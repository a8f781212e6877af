package pctl

import (
	"context"
	"fmt"
	"math"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/graphanalysis"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// buildConditionalAugmentedModel constructs the two-copy-plus-sinks MDP
// spec.md §4.7 "Conditional probability" describes: copy0 tracks "ψ not
// yet seen", copy1 tracks "ψ seen, target not yet seen", goal is reached
// the step both target and ψ have held (in either order, since F target
// ∧ F ψ is order-independent), and fail absorbs any state doomed never
// to satisfy either event under any scheduler (spec's "restart
// mechanism" collapsed to a single absorbing sink, since a self-looping
// fail state and a restart-to-initial state assign it the same
// eventual-zero weight in the ratio this function feeds into).
func buildConditionalAugmentedModel[V numeric.Value](trans *sparsematrix.Matrix[V], target, psi *bitset.Set) (*sparsematrix.Matrix[V], int, int, error) {
	n := trans.NumStates()
	full := bitset.NewFull(n)
	doomedEither, err := graphanalysis.Prob0A(trans, full, target.Union(psi))
	if err != nil {
		return nil, 0, 0, err
	}
	doomedTarget, err := graphanalysis.Prob0A(trans, full, target)
	if err != nil {
		return nil, 0, 0, err
	}

	copy0 := func(s int) int { return s }
	copy1 := func(s int) int { return n + s }
	goal := 2 * n
	fail := 2*n + 1
	numStates := 2*n + 2
	kind := trans.Kind()

	b := sparsematrix.NewBuilder[V](numStates, kind)
	grp := trans.Grp()

	for s := 0; s < n; s++ {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			var out []sparsematrix.Entry[V]
			for _, e := range trans.Row(r) {
				var newCol int
				switch {
				case doomedEither.Test(e.Col):
					newCol = fail
				case psi.Test(e.Col):
					if target.Test(e.Col) {
						newCol = goal
					} else {
						newCol = copy1(e.Col)
					}
				default:
					newCol = copy0(e.Col)
				}
				out = append(out, sparsematrix.Entry[V]{Col: newCol, Val: e.Val})
			}
			b.AddRow(mergeByColumn(out))
		}
		b.EndState()
	}

	for s := 0; s < n; s++ {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			var out []sparsematrix.Entry[V]
			for _, e := range trans.Row(r) {
				var newCol int
				switch {
				case target.Test(e.Col):
					newCol = goal
				case doomedTarget.Test(e.Col):
					newCol = fail
				default:
					newCol = copy1(e.Col)
				}
				out = append(out, sparsematrix.Entry[V]{Col: newCol, Val: e.Val})
			}
			b.AddRow(mergeByColumn(out))
		}
		b.EndState()
	}

	one := numeric.OneOf(kind).(V)
	b.AddRow([]sparsematrix.Entry[V]{{Col: goal, Val: one}})
	b.EndState()
	b.AddRow([]sparsematrix.Entry[V]{{Col: fail, Val: one}})
	b.EndState()

	m, err := b.Build(true)
	if err != nil {
		return nil, 0, 0, err
	}
	return m, goal, fail, nil
}

func mergeByColumn[V numeric.Value](entries []sparsematrix.Entry[V]) []sparsematrix.Entry[V] {
	byCol := make(map[int]int, len(entries))
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

// ConditionalProbability computes P_dir(F target | F ψ) (spec.md §4.7).
// The numerator is obtained as a reachability query on the augmented
// model built by buildConditionalAugmentedModel; the denominator is a
// plain Eventually(ψ) on the original model, in the same direction dir.
// Returns +∞ at any state whose denominator P_dir(F ψ) is zero (applied
// per-state so the returned vector is total); under Min this includes
// states where P_max(F ψ) is positive.
func ConditionalProbability[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], initial *bitset.Set, dir model.OptimizationDirection, target, psi *bitset.Set, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	n := trans.NumStates()
	if target.Len() != n || psi.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: ConditionalProbability: target/psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}

	denom, err := Eventually(ctx, trans, initial, dir, psi, opts, factory)
	if err != nil {
		return model.CheckResult{}, err
	}

	aug, goal, _, err := buildConditionalAugmentedModel(trans, target, psi)
	if err != nil {
		return model.CheckResult{}, err
	}
	augInitial := bitset.New(aug.NumStates())
	initial.ForEachSet(func(s int) bool {
		augInitial.Set(s)
		return true
	})
	augFull := bitset.NewFull(aug.NumStates())
	augGoal := bitset.New(aug.NumStates())
	augGoal.Set(goal)

	numOpts := opts
	numOpts.ProduceScheduler = false
	numer, err := Until(ctx, aug, augInitial, dir, augFull, augGoal, numOpts, factory)
	if err != nil {
		return model.CheckResult{}, err
	}

	x := make([]float64, n)
	for s := 0; s < n; s++ {
		if denom.Quantitative[s] == 0 {
			x[s] = math.Inf(1)
			continue
		}
		x[s] = numer.Quantitative[s] / denom.Quantitative[s]
	}
	return model.CheckResult{Kind: model.ResultQuantitative, Quantitative: x}, nil
}
