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
	"github.com/probmc/mdpcore/vecutil"
)

// solveMecGain solves the per-MEC LP of spec.md §4.7 step 2: variables
// {h_s}_{s in mec} plus a scalar λ, one constraint per (state, retained
// choice) pair, λ maximized for Max (minimized for Min). h_s/λ are
// sign-unrestricted (the bias/gain pair of the standard average-reward
// LP has no natural lower bound), which is exactly the free-variable
// case minmax.LpSolver.Solve was extended to handle.
func solveMecGain[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], mec graphanalysis.EndComponent, psi *bitset.Set, dir model.OptimizationDirection, lpFactory model.LpSolverFactory) (float64, error) {
	states := mec.States.ToSlice()
	localIdx := make(map[int]int, len(states))
	for i, s := range states {
		localIdx[s] = i
	}
	lambdaVar := len(states)
	numVars := len(states) + 1

	lb := make([]float64, numVars)
	for i := range lb {
		lb[i] = math.Inf(-1)
	}
	objective := make([]float64, numVars)
	objective[lambdaVar] = 1

	relOp := model.LessEqual
	if dir == model.Min {
		relOp = model.GreaterEqual
	}

	grp := trans.Grp()
	var constraints []model.LpConstraint
	for _, s := range states {
		lo, hi := grp[s], grp[s+1]
		for r := lo; r < hi; r++ {
			if !mec.Choices.Test(r) {
				continue
			}
			coeffs := map[int]float64{localIdx[s]: 1, lambdaVar: 1}
			rPsi := 0.0
			for _, e := range trans.Row(r) {
				if li, ok := localIdx[e.Col]; ok {
					coeffs[li] -= e.Val.Float64()
				}
				if psi.Test(e.Col) {
					rPsi += e.Val.Float64()
				}
			}
			vars := make([]int, 0, len(coeffs))
			vals := make([]float64, 0, len(coeffs))
			for v, c := range coeffs {
				if c == 0 {
					continue
				}
				vars = append(vars, v)
				vals = append(vals, c)
			}
			constraints = append(constraints, model.LpConstraint{Vars: vars, Coeffs: vals, RelOp: relOp, RHS: rPsi})
		}
	}

	problem := model.LpProblem{
		NumVars:     numVars,
		Minimize:    dir == model.Min,
		Objective:   objective,
		Constraints: constraints,
		LowerBound:  lb,
	}
	solver, err := lpFactory.New()
	if err != nil {
		return 0, err
	}
	sol, err := solver.Solve(ctx, problem)
	if err != nil {
		return 0, err
	}
	return sol.X[lambdaVar], nil
}

// LongRunAverage computes LRA_dir(ψ) (spec.md §4.7). Each maximal end
// component is reduced to a scalar gain λ via solveMecGain; every
// transient state (one belonging to no MEC) is solved as an absorption-
// reward problem where reaching any MEC pays, in one lump sum at the
// moment of entry, the probability-weighted λ of the MEC entered — the
// standard reduction of a multichain average-reward MDP to a single
// stochastic-shortest-path computation (spec.md §4.7 step 3), expressed
// directly as a MinMax solve over the transient submatrix rather than
// materializing literal sink rows/self-loops, since the sink's fixed
// value is already known (λ) and can be folded into the right-hand side
// exactly the way Until folds the "yes" set's value of 1 into its b
// vector.
//
// Scheduler synthesis covers only transient states (the submatrix
// solver's own scheduler, index-preserving under the full-row-group
// choiceMask); a MEC state's scheduler entry is always 0, since
// recovering the optimal MEC-internal policy would require inspecting
// which LP constraints bind at the optimum, which this implementation
// does not do.
func LongRunAverage[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, psi *bitset.Set, opts model.Options, lpFactory model.LpSolverFactory, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	n := trans.NumStates()
	if psi.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: LongRunAverage: psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}

	mecs, err := graphanalysis.MaximalEndComponents(trans, graphanalysis.WithContext(ctx))
	if err != nil {
		return model.CheckResult{}, err
	}

	lambdaOf := make([]float64, n)
	mecStates := bitset.New(n)
	for _, mec := range mecs {
		lambda, err := solveMecGain(ctx, trans, mec, psi, dir, lpFactory)
		if err != nil {
			return model.CheckResult{}, err
		}
		mec.States.ForEachSet(func(s int) bool {
			lambdaOf[s] = lambda
			return true
		})
		mecStates.UnionInPlace(mec.States)
	}
	transient := mecStates.Complement()

	kind := trans.Kind()
	x := make([]V, n)
	mecStates.ForEachSet(func(s int) bool {
		x[s] = numeric.FromFloat64(kind, lambdaOf[s]).(V)
		return true
	})

	var transientScheduler model.Scheduler
	if !transient.IsEmpty() {
		choiceMask := fullChoiceMaskOver(trans, transient)
		sub, err := trans.Submatrix(transient, choiceMask, false)
		if err != nil {
			return model.CheckResult{}, err
		}

		rows := choiceMask.ToSlice()
		bSub := make([]V, len(rows))
		for i, r := range rows {
			acc := 0.0
			for _, e := range trans.Row(r) {
				if mecStates.Test(e.Col) {
					acc += e.Val.Float64() * lambdaOf[e.Col]
				}
			}
			bSub[i] = numeric.FromFloat64(kind, acc).(V)
		}

		solver, err := factory.New(sub, opts)
		if err != nil {
			return model.CheckResult{}, err
		}
		result, err := solver.Solve(ctx, dir, nil, bSub)
		if err != nil {
			return model.CheckResult{}, err
		}
		vecutil.SetValuesFromSlice(x, transient, result.X)
		transientScheduler = result.Scheduler
	}

	res := model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}
	if opts.ProduceScheduler {
		sched := make(model.Scheduler, n)
		idx := 0
		transient.ForEachSet(func(s int) bool {
			if transientScheduler != nil {
				sched[s] = transientScheduler[idx]
			}
			idx++
			return true
		})
		res.Scheduler = sched
	}
	return res, nil
}
