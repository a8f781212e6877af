package minmax

import (
	"context"

	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
)

// Solver implements model.MinMaxLinearEquationSolver by dispatching to
// one of this package's three techniques per opts.Technique (spec.md
// §4.6). It is the facade a pctl engine call obtains from SolverFactory
// rather than calling ValueIteration/PolicyIteration/LPMinMax directly.
type Solver[V numeric.Value] struct {
	trans      *sparsematrix.Matrix[V]
	opts       model.Options
	linFactory model.LinearEquationSolverFactory[V]
	lpFactory  model.LpSolverFactory
}

// Solve implements model.MinMaxLinearEquationSolver.
func (s *Solver[V]) Solve(ctx context.Context, op model.OptimizationDirection, xInit []V, b []V) (model.MinMaxResult[V], error) {
	switch s.opts.Technique {
	case model.PolicyIteration:
		factory := s.linFactory
		if factory == nil {
			factory = GonumSolverFactory[V]{}
		}
		return PolicyIteration(ctx, s.trans, op, xInit, b, s.opts, factory)
	case model.LinearProgramming:
		factory := s.lpFactory
		if factory == nil {
			factory = LpSolverFactory{}
		}
		return LPMinMax(ctx, s.trans, op, b, s.opts, factory)
	default:
		return ValueIteration(ctx, s.trans, op, xInit, b, s.opts)
	}
}

// SolverFactory implements model.MinMaxLinearEquationSolverFactory.
// LinFactory/LpFactory are optional overrides for PolicyIteration's and
// LinearProgramming's respective backends; nil defaults to
// GonumSolverFactory / LpSolverFactory, this package's own ecosystem-
// grounded implementations of those two interfaces.
type SolverFactory[V numeric.Value] struct {
	LinFactory model.LinearEquationSolverFactory[V]
	LpFactory  model.LpSolverFactory
}

// New implements model.MinMaxLinearEquationSolverFactory.
func (f SolverFactory[V]) New(a *sparsematrix.Matrix[V], opts model.Options) (model.MinMaxLinearEquationSolver[V], error) {
	return &Solver[V]{trans: a, opts: opts, linFactory: f.LinFactory, lpFactory: f.LpFactory}, nil
}
