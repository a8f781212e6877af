package minmax

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/probmc/mdpcore/model"
)

// errUnbounded marks the internal (always-minimizing) simplex detecting
// an unbounded direction; Solve remaps it to model.ErrUnboundedBelow or
// model.ErrUnboundedAbove depending on the original problem's sense.
var errUnbounded = errors.New("minmax: lp solver unbounded")

// LpSolverFactory constructs LpSolver, a from-scratch dense two-phase
// simplex sized for the small per-MEC/per-weight linear programs the
// multi-objective refinement loop and the LP-encoded MinMax technique
// actually issue (spec.md §1 explicitly scopes a production LP backend
// out; this is the "thin abstract interface plus a usable default"
// the same section calls for).
//
// Grounded on no single teacher file (lvlath has no LP/simplex code
// anywhere); written in the teacher's validate-then-execute,
// sentinel-error style, using Bland's smallest-index pivoting rule
// throughout for the same reason this whole module favors ascending-
// index tie-breaks: deterministic output independent of map iteration
// or floating-point noise order.
type LpSolverFactory struct{}

// New returns a fresh LpSolver. The solver carries no state between
// calls, so one instance may be reused freely.
func (LpSolverFactory) New() (model.LpSolver, error) {
	return &LpSolver{}, nil
}

// LpSolver solves one model.LpProblem via the two-phase simplex method.
type LpSolver struct{}

const simplexEps = 1e-9

// Solve implements model.LpSolver.
func (*LpSolver) Solve(ctx context.Context, p model.LpProblem) (model.LpSolution, error) {
	if err := ctx.Err(); err != nil {
		return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: %w", model.ErrCancelled)
	}
	if p.NumVars <= 0 {
		return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: NumVars=%d: %w", p.NumVars, ErrInvalidArgument)
	}
	if len(p.Objective) != p.NumVars {
		return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: len(Objective)=%d != NumVars=%d: %w", len(p.Objective), p.NumVars, ErrInvalidArgument)
	}

	lb := make([]float64, p.NumVars)
	ub := make([]float64, p.NumVars)
	for j := range ub {
		ub[j] = math.Inf(1)
	}
	if p.LowerBound != nil {
		if len(p.LowerBound) != p.NumVars {
			return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: len(LowerBound)=%d != NumVars=%d: %w", len(p.LowerBound), p.NumVars, ErrInvalidArgument)
		}
		copy(lb, p.LowerBound)
	}
	if p.UpperBound != nil {
		if len(p.UpperBound) != p.NumVars {
			return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: len(UpperBound)=%d != NumVars=%d: %w", len(p.UpperBound), p.NumVars, ErrInvalidArgument)
		}
		copy(ub, p.UpperBound)
	}

	// A variable with LowerBound -Inf is unrestricted in sign (the LRA
	// LP's h_s/lambda variables, spec.md §4.7, have no natural bound);
	// the simplex only ever handles nonnegative columns, so split each
	// free variable x_j into x_j = pos - neg, pos,neg >= 0, following
	// the standard textbook reformulation rather than a Big-M hack.
	// Combining a free lower bound with a finite upper bound is not a
	// shape this module's callers produce; reject it explicitly instead
	// of silently mishandling it.
	free := make([]bool, p.NumVars)
	varCol := make([][]int, p.NumVars) // 1 entry (shifted var) or 2 ([pos, neg])
	numSimplexVars := 0
	for j := 0; j < p.NumVars; j++ {
		if math.IsInf(lb[j], -1) {
			if !math.IsInf(ub[j], 1) {
				return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: var %d has free lower bound and finite upper bound: %w", j, ErrInvalidArgument)
			}
			free[j] = true
			varCol[j] = []int{numSimplexVars, numSimplexVars + 1}
			numSimplexVars += 2
		} else {
			varCol[j] = []int{numSimplexVars}
			numSimplexVars++
		}
	}

	// Build dense shifted (y = x - lb >= 0, or the pos/neg split for a
	// free variable) constraint rows, including one extra row per
	// finite upper bound on a non-free variable.
	type row struct {
		coeffs []float64 // length numSimplexVars
		relLE  bool      // true: <=, false: >=
		rhs    float64
	}
	var rows []row
	for ci, c := range p.Constraints {
		if len(c.Vars) != len(c.Coeffs) {
			return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: constraint %d Vars/Coeffs length mismatch: %w", ci, ErrInvalidArgument)
		}
		dense := make([]float64, numSimplexVars)
		rhs := c.RHS
		for k, v := range c.Vars {
			if v < 0 || v >= p.NumVars {
				return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: constraint %d var index %d out of range: %w", ci, v, ErrInvalidArgument)
			}
			coef := c.Coeffs[k]
			if free[v] {
				dense[varCol[v][0]] += coef
				dense[varCol[v][1]] -= coef
			} else {
				dense[varCol[v][0]] += coef
				rhs -= coef * lb[v]
			}
		}
		le := c.RelOp == model.LessEqual || c.RelOp == model.LessThan
		rows = append(rows, row{coeffs: dense, relLE: le, rhs: rhs})
	}
	for j := 0; j < p.NumVars; j++ {
		if free[j] || math.IsInf(ub[j], 1) {
			continue
		}
		dense := make([]float64, numSimplexVars)
		dense[varCol[j][0]] = 1
		rows = append(rows, row{coeffs: dense, relLE: true, rhs: ub[j] - lb[j]})
	}

	// Normalize RHS >= 0 by flipping rows with a negative RHS.
	for i := range rows {
		if rows[i].rhs < 0 {
			for j := range rows[i].coeffs {
				rows[i].coeffs[j] = -rows[i].coeffs[j]
			}
			rows[i].rhs = -rows[i].rhs
			rows[i].relLE = !rows[i].relLE
		}
	}

	m := len(rows)
	if m == 0 {
		x := make([]float64, p.NumVars)
		for j := range x {
			if free[j] {
				if p.Objective[j] != 0 {
					return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: %w", model.ErrUnboundedBelow)
				}
				x[j] = 0
			} else {
				x[j] = lb[j]
			}
		}
		return model.LpSolution{X: x, Objective: dot(p.Objective, x)}, nil
	}

	numSlack, numSurplus := 0, 0
	for _, r := range rows {
		if r.relLE {
			numSlack++
		} else {
			numSurplus++
		}
	}
	numArtificial := numSurplus
	nv := numSimplexVars
	slackStart := nv
	surplusStart := slackStart + numSlack
	artStart := surplusStart + numSurplus
	rhsCol := artStart + numArtificial
	numCols := rhsCol + 1

	tableau := make([][]float64, m)
	basis := make([]int, m)
	si, ei := 0, 0
	for i, r := range rows {
		t := make([]float64, numCols)
		copy(t[:nv], r.coeffs)
		t[rhsCol] = r.rhs
		if r.relLE {
			t[slackStart+si] = 1
			basis[i] = slackStart + si
			si++
		} else {
			t[surplusStart+ei] = -1
			t[artStart+ei] = 1
			basis[i] = artStart + ei
			ei++
		}
		tableau[i] = t
	}

	if numArtificial > 0 {
		cost := make([]float64, numCols)
		for j := artStart; j < artStart+numArtificial; j++ {
			cost[j] = 1
		}
		row0 := canonicalize(cost, tableau, basis)
		if err := simplexIterate(ctx, row0, tableau, basis, 0, artStart); err != nil {
			return model.LpSolution{}, err
		}
		// canonicalize's row0[rhsCol] holds -Z (the negative of the
		// current phase-1 objective, c_B^T B^-1 b worked out the usual
		// reduced-cost way); infeasible iff that objective exceeds zero.
		if row0[rhsCol] < -simplexEps {
			return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: %w", ErrInfeasible)
		}
	}

	cost := make([]float64, numCols)
	sign := 1.0
	if !p.Minimize {
		sign = -1.0
	}
	for j := 0; j < p.NumVars; j++ {
		if free[j] {
			cost[varCol[j][0]] += sign * p.Objective[j]
			cost[varCol[j][1]] -= sign * p.Objective[j]
		} else {
			cost[varCol[j][0]] += sign * p.Objective[j]
		}
	}
	row0 := canonicalize(cost, tableau, basis)
	if err := simplexIterate(ctx, row0, tableau, basis, 0, artStart); err != nil {
		if errors.Is(err, errUnbounded) {
			if sign < 0 {
				return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: %w", model.ErrUnboundedAbove)
			}
			return model.LpSolution{}, fmt.Errorf("minmax: LpSolver.Solve: %w", model.ErrUnboundedBelow)
		}
		return model.LpSolution{}, err
	}

	y := make([]float64, nv)
	for i, bcol := range basis {
		if bcol < nv {
			y[bcol] = tableau[i][rhsCol]
		}
	}
	x := make([]float64, p.NumVars)
	for j := range x {
		if free[j] {
			x[j] = y[varCol[j][0]] - y[varCol[j][1]]
		} else {
			x[j] = y[varCol[j][0]] + lb[j]
		}
	}
	return model.LpSolution{X: x, Objective: dot(p.Objective, x)}, nil
}

func dot(a, b []float64) float64 {
	acc := 0.0
	for i := range a {
		acc += a[i] * b[i]
	}
	return acc
}

// canonicalize expresses cost in terms of the nonbasic columns only,
// given the current basis, returning the resulting objective row (index
// 0 holds no special meaning here beyond being the caller's working
// copy; unlike tableau rows it is not tied to a basis[i] slot).
func canonicalize(cost []float64, tableau [][]float64, basis []int) []float64 {
	row0 := append([]float64(nil), cost...)
	for i, bcol := range basis {
		if row0[bcol] == 0 {
			continue
		}
		factor := row0[bcol]
		for j := range row0 {
			row0[j] -= factor * tableau[i][j]
		}
	}
	return row0
}

// simplexIterate runs Bland's-rule simplex on row0/tableau/basis,
// restricting entering-variable search to columns [0, enterLimit)
// (excluding RHS and, in phase 2, the artificial columns already
// retired). Mutates row0, tableau, and basis in place.
func simplexIterate(ctx context.Context, row0 []float64, tableau [][]float64, basis []int, minCol, enterLimit int) error {
	m := len(tableau)
	rhsCol := len(row0) - 1
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("minmax: LpSolver.Solve: %w", model.ErrCancelled)
		}
		enter := -1
		for j := minCol; j < enterLimit; j++ {
			if row0[j] < -simplexEps {
				enter = j
				break
			}
		}
		if enter < 0 {
			return nil
		}

		leave := -1
		bestRatio := math.Inf(1)
		for i := 0; i < m; i++ {
			a := tableau[i][enter]
			if a <= simplexEps {
				continue
			}
			ratio := tableau[i][rhsCol] / a
			if ratio < bestRatio-simplexEps {
				bestRatio = ratio
				leave = i
			} else if ratio < bestRatio+simplexEps && leave >= 0 && basis[i] < basis[leave] {
				leave = i
			}
		}
		if leave < 0 {
			return errUnbounded
		}

		pivot := tableau[leave][enter]
		for j := range tableau[leave] {
			tableau[leave][j] /= pivot
		}
		for i := 0; i < m; i++ {
			if i == leave {
				continue
			}
			factor := tableau[i][enter]
			if factor == 0 {
				continue
			}
			for j := range tableau[i] {
				tableau[i][j] -= factor * tableau[leave][j]
			}
		}
		factor := row0[enter]
		if factor != 0 {
			for j := range row0 {
				row0[j] -= factor * tableau[leave][j]
			}
		}
		basis[leave] = enter
	}
}
