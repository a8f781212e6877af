package minmax

import (
	"context"
	"testing"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/stretchr/testify/require"
)

// contractingTwoState builds a trivially-grouped 2-state system with a
// single choice per state: state0 -> {1: 0.5}, state1 -> {1: 0.5}, each
// choice earning reward 1. The Bellman equations x0 = 0.5x1+1,
// x1 = 0.5x1+1 solve exactly to x1=2, x0=2 (spectral radius 0.5 < 1, so
// value iteration converges from any start).
func contractingTwoState(t *testing.T) (*sparsematrix.Matrix[numeric.Float64], []numeric.Float64) {
	t.Helper()
	rows := [][]sparsematrix.Entry[numeric.Float64]{
		{{Col: 1, Val: 0.5}},
		{{Col: 1, Val: 0.5}},
	}
	m, err := sparsematrix.NewTriviallyGrouped[numeric.Float64](2, numeric.KindFloat64, rows, true)
	require.NoError(t, err)
	b := []numeric.Float64{1, 1}
	return m, b
}

func TestValueIterationConverges(t *testing.T) {
	m, b := contractingTwoState(t)
	opts := model.NewOptions(model.WithPrecision(1e-9))
	res, err := ValueIteration(context.Background(), m, model.Min, nil, b, opts)
	require.NoError(t, err)
	require.InDelta(t, 2.0, float64(res.X[0]), 1e-6)
	require.InDelta(t, 2.0, float64(res.X[1]), 1e-6)
}

func TestPolicyIterationExact(t *testing.T) {
	m, b := contractingTwoState(t)
	opts := model.NewOptions()
	res, err := PolicyIteration(context.Background(), m, model.Min, nil, b, opts, GonumSolverFactory[numeric.Float64]{})
	require.NoError(t, err)
	require.InDelta(t, 2.0, float64(res.X[0]), 1e-9)
	require.InDelta(t, 2.0, float64(res.X[1]), 1e-9)
	require.Equal(t, uint64(1), res.Iterations)
}

func TestLPMinMaxMatchesValueIteration(t *testing.T) {
	m, b := contractingTwoState(t)
	opts := model.NewOptions()
	res, err := LPMinMax(context.Background(), m, model.Min, b, opts, LpSolverFactory{})
	require.NoError(t, err)
	require.InDelta(t, 2.0, float64(res.X[0]), 1e-6)
	require.InDelta(t, 2.0, float64(res.X[1]), 1e-6)
}

func TestLpSolverTextbookExample(t *testing.T) {
	// maximize 3x + 5y s.t. x<=4, 2y<=12, 3x+2y<=18, x,y>=0.
	// Classic textbook optimum: x=2, y=6, objective=36.
	p := model.LpProblem{
		NumVars:   2,
		Minimize:  false,
		Objective: []float64{3, 5},
		Constraints: []model.LpConstraint{
			{Vars: []int{0}, Coeffs: []float64{1}, RelOp: model.LessEqual, RHS: 4},
			{Vars: []int{1}, Coeffs: []float64{2}, RelOp: model.LessEqual, RHS: 12},
			{Vars: []int{0, 1}, Coeffs: []float64{3, 2}, RelOp: model.LessEqual, RHS: 18},
		},
	}
	solver, err := (LpSolverFactory{}).New()
	require.NoError(t, err)
	sol, err := solver.Solve(context.Background(), p)
	require.NoError(t, err)
	require.InDelta(t, 2.0, sol.X[0], 1e-6)
	require.InDelta(t, 6.0, sol.X[1], 1e-6)
	require.InDelta(t, 36.0, sol.Objective, 1e-6)
}

func TestLpSolverInfeasible(t *testing.T) {
	// x >= 5 and x <= 1 simultaneously: no feasible point.
	p := model.LpProblem{
		NumVars:   1,
		Minimize:  true,
		Objective: []float64{1},
		Constraints: []model.LpConstraint{
			{Vars: []int{0}, Coeffs: []float64{1}, RelOp: model.GreaterEqual, RHS: 5},
			{Vars: []int{0}, Coeffs: []float64{1}, RelOp: model.LessEqual, RHS: 1},
		},
	}
	solver, err := (LpSolverFactory{}).New()
	require.NoError(t, err)
	_, err = solver.Solve(context.Background(), p)
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestGonumSolverSolvesLinearSystem(t *testing.T) {
	// (I - A)x = b for A = [[0,0.5],[0,0.5]], b=[1,1]: same system as
	// contractingTwoState, solved directly rather than via PolicyIteration.
	rows := [][]sparsematrix.Entry[numeric.Float64]{
		{{Col: 1, Val: 0.5}},
		{{Col: 1, Val: 0.5}},
	}
	m, err := sparsematrix.NewTriviallyGrouped[numeric.Float64](2, numeric.KindFloat64, rows, true)
	require.NoError(t, err)
	require.NoError(t, m.ConvertToEquationSystem())

	factory := GonumSolverFactory[numeric.Float64]{}
	solver, err := factory.New(m)
	require.NoError(t, err)
	x, err := solver.Solve(context.Background(), []numeric.Float64{1, 1})
	require.NoError(t, err)
	require.InDelta(t, 2.0, float64(x[0]), 1e-9)
	require.InDelta(t, 2.0, float64(x[1]), 1e-9)
}
