package multiobj

import (
	"context"
	"fmt"
	"math"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// normalize rescales w to Σw_i = 1, clamping any negative component to 0
// first (a weight vector only ever needs a direction; callers pass in
// non-negative candidates, but floating-point drift from Gap's subtraction
// can occasionally nudge one below zero).
func normalize(w []float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		if v < 0 {
			v = 0
		}
		out[i] = v
		sum += v
	}
	if sum <= 0 {
		for i := range out {
			out[i] = 1.0 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func dirac(k, i int) []float64 {
	w := make([]float64, k)
	w[i] = 1
	return w
}

// satisfiesThresholds reports whether values (in user-space, one per
// objective) meets every objective's Achievability threshold.
func satisfiesThresholds[V numeric.Value](objs []Objective[V], values []float64) bool {
	for i, obj := range objs {
		v := values[i]
		if obj.Direction == model.Max {
			if obj.Strict {
				if !(v > obj.Threshold) {
					return false
				}
			} else if !(v >= obj.Threshold) {
				return false
			}
		} else {
			if obj.Strict {
				if !(v < obj.Threshold) {
					return false
				}
			} else if !(v <= obj.Threshold) {
				return false
			}
		}
	}
	return true
}

// Run answers q against trans starting from initial state s0 (spec.md
// §4.8): Achievability decides whether every objective's threshold is
// simultaneously satisfiable, Quantitative finds the extremal value of
// q.Objectives[q.OptimizingObjective] on its own (the other objectives'
// thresholds are not applied), Pareto approximates the achievable
// value set from below and above until the two bracket each other within
// opts.Precision. Grounded on pctl.Check's validate-then-dispatch shape
// (model.Formula's Kind switch), generalized here to a QueryKind switch
// over the same per-step weighted-sum primitive.
func Run[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], s0 int, q Query[V], opts model.Options) (Result, error) {
	k := len(q.Objectives)
	if k == 0 {
		return Result{}, fmt.Errorf("multiobj: Run: empty objective set: %w", ErrInvalidArgument)
	}
	if q.Kind == Quantitative && (q.OptimizingObjective < 0 || q.OptimizingObjective >= k) {
		return Result{}, fmt.Errorf("multiobj: Run: OptimizingObjective out of range: %w", ErrInvalidArgument)
	}

	stepRewards := make([][]float64, k)
	for i, obj := range q.Objectives {
		stepRewards[i] = objectiveStepReward(obj, trans)
	}

	maxSteps := opts.MultiObjectiveMaxSteps
	if maxSteps == 0 {
		maxSteps = model.DefaultOptions().MultiObjectiveMaxSteps
	}
	precision := opts.Precision
	if precision <= 0 {
		precision = model.DefaultOptions().Precision
	}
	// Weighted-precision adaptation (spec.md §4.8): a weight vector with a
	// small minimal nonzero component needs the inner solve sharper than
	// the outer polytope precision, or its contribution rounds away.
	innerPrecision := func(w []float64) float64 {
		minW := 1.0
		for _, v := range w {
			if v > 1e-12 && v < minW {
				minW = v
			}
		}
		p := precision * minW
		if p < 1e-14 {
			p = 1e-14
		}
		return p
	}

	under := NewEmptyUnder(k)
	over := NewUniverseOver(k)
	var steps uint64

	solveAndRefine := func(w []float64) ([]float64, error) {
		w = normalize(w)
		combined, perObj, err := weightedSumSolve(ctx, trans, s0, q.Objectives, stepRewards, w, innerPrecision(w))
		if err != nil {
			return nil, err
		}
		steps++
		// The polytope lives in driver space (every axis maximized): a
		// Min objective's raw value is negated before it joins under/over,
		// matching the sign weightedSumSolve itself folded into combined.
		driverSpace := make([]float64, k)
		for i, obj := range q.Objectives {
			driverSpace[i] = directionSign(obj.Direction) * perObj[i]
		}
		under = under.WithVertex(Point{Value: driverSpace})
		over = over.IntersectHalfspace(Halfspace{W: w, Bound: combined})
		return perObj, nil
	}

	// Seed with the k axis directions: each gives an exact upper bound on
	// that objective's own value in isolation (spec.md §4.8 step 1).
	for i := 0; i < k; i++ {
		if _, err := solveAndRefine(dirac(k, i)); err != nil {
			return Result{}, err
		}
	}

	switch q.Kind {
	case Achievability:
		return runAchievability(ctx, q, under, over, solveAndRefine, maxSteps, &steps)
	case Quantitative:
		return runQuantitative(q, under, over, solveAndRefine, precision, maxSteps, &steps)
	case Pareto:
		return runPareto(under, over, solveAndRefine, precision, maxSteps, &steps)
	default:
		return Result{}, fmt.Errorf("multiobj: Run: unknown query kind: %w", ErrInvalidArgument)
	}
}

func runAchievability[V numeric.Value](ctx context.Context, q Query[V], under, over *Polytope, solveAndRefine func([]float64) ([]float64, error), maxSteps uint64, steps *uint64) (Result, error) {
	thresholds := make([]float64, len(q.Objectives))
	for i, obj := range q.Objectives {
		thresholds[i] = directionSign(obj.Direction) * obj.Threshold
	}
	check := func() (bool, bool) {
		for _, v := range under.Vertices() {
			user := toUserSpace(q.Objectives, v.Value)
			if satisfiesThresholds(q.Objectives, user) {
				return true, true
			}
		}
		if !over.Contains(Point{Value: thresholds}) {
			return true, false
		}
		return false, false
	}
	if done, ok := check(); done {
		return Result{Achievable: ok, RefinementSteps: *steps}, nil
	}
	for *steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("multiobj: runAchievability: %w", model.ErrCancelled)
		}
		w := nextWeight(len(q.Objectives), under, over)
		if _, err := solveAndRefine(w); err != nil {
			return Result{}, err
		}
		if done, ok := check(); done {
			return Result{Achievable: ok, RefinementSteps: *steps}, nil
		}
	}
	return Result{}, &model.PrecisionNotReachedError{Under: under, Over: over, RefinementSteps: *steps}
}

func runQuantitative[V numeric.Value](q Query[V], under, over *Polytope, solveAndRefine func([]float64) ([]float64, error), precision float64, maxSteps uint64, steps *uint64) (Result, error) {
	i := q.OptimizingObjective
	sign := directionSign(q.Objectives[i].Direction)
	bound := func(p *Polytope, pick func(a, b float64) float64, seed float64) float64 {
		best := seed
		for _, v := range p.Vertices() {
			if r := v.Value[i]; pick(r, best) == r {
				best = r
			}
		}
		return best
	}
	lo := bound(under, math.Max, math.Inf(-1))
	hi := math.Inf(1)
	for _, h := range over.Halfspaces() {
		if h.W[i] == 1 {
			if h.Bound < hi {
				hi = h.Bound
			}
		}
	}
	for *steps < maxSteps && hi-lo > precision {
		w := dirac(len(q.Objectives), i)
		if _, err := solveAndRefine(w); err != nil {
			return Result{}, err
		}
		lo = bound(under, math.Max, lo)
		for _, h := range over.Halfspaces() {
			if h.W[i] == 1 && h.Bound < hi {
				hi = h.Bound
			}
		}
		if hi-lo <= precision {
			break
		}
		w = nextWeight(len(q.Objectives), under, over)
		if _, err := solveAndRefine(w); err != nil {
			return Result{}, err
		}
		lo = bound(under, math.Max, lo)
		for _, h := range over.Halfspaces() {
			if h.W[i] == 1 && h.Bound < hi {
				hi = h.Bound
			}
		}
	}
	if hi-lo > precision {
		return Result{}, &model.PrecisionNotReachedError{Under: under, Over: over, RefinementSteps: *steps}
	}
	return Result{Value: sign * lo, RefinementSteps: *steps}, nil
}

func runPareto(under, over *Polytope, solveAndRefine func([]float64) ([]float64, error), precision float64, maxSteps uint64, steps *uint64) (Result, error) {
	for *steps < maxSteps && Gap(under, over) > precision {
		w := nextWeight(under.Dim(), under, over)
		var err error
		if _, err = solveAndRefine(w); err != nil {
			return Result{}, err
		}
	}
	if Gap(under, over) > precision {
		return Result{}, &model.PrecisionNotReachedError{Under: under, Over: over, RefinementSteps: *steps}
	}
	return Result{Pareto: &ParetoResult{Under: under, Over: over}, RefinementSteps: *steps}, nil
}

// nextWeight picks the normal of over's halfspace with the largest gap to
// under (spec.md §4.8 step 2's "farthest-violated-halfspace direction"),
// falling back to dirac(dim, 0) if over has not accumulated any
// halfspace yet.
func nextWeight(dim int, under, over *Polytope) []float64 {
	best := -1
	bestGap := -1.0
	for idx, h := range over.Halfspaces() {
		g := supportGap(h, under)
		if g > bestGap {
			bestGap = g
			best = idx
		}
	}
	if best < 0 {
		return dirac(dim, 0)
	}
	return over.Halfspaces()[best].W
}

func supportGap(h Halfspace, under *Polytope) float64 {
	best := math.Inf(-1)
	for _, v := range under.Vertices() {
		if d := dot(h.W, v.Value); d > best {
			best = d
		}
	}
	if math.IsInf(best, -1) {
		return math.Inf(1)
	}
	return h.Bound - best
}

// toUserSpace undoes the direction sign flip applied on the way into the
// weighted-sum solve, returning a point in the units the caller's
// Objectives are expressed in. directionSign is its own inverse (±1), so
// applying it a second time here recovers the original value.
func toUserSpace[V numeric.Value](objs []Objective[V], driverValues []float64) []float64 {
	out := make([]float64, len(objs))
	for i, obj := range objs {
		out[i] = driverValues[i] * directionSign(obj.Direction)
	}
	return out
}
