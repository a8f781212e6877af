package pctl

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/minmax"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
)

// Check is the single entry point spec.md §6 describes: given a Model
// and a Formula AST, dispatch to the matching C7 operation and return
// its CheckResult. Boolean connectives (Not/And/Or) and the atomic-label
// leaf are resolved in-process via evalStateSet rather than recursive
// Check calls, since they never need a MinMax solve of their own — only
// the state-set algebra spec.md §6 assigns them.
//
// When factory/lpFactory are the zero value (nil interface), Check
// defaults them to minmax.SolverFactory[V]{}/minmax.LpSolverFactory{},
// the project's own C6 implementation, mirroring how sparsematrix's
// Builder defaults an omitted Kind.
func Check[V numeric.Value](ctx context.Context, m *model.Model[V], f model.Formula, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V], lpFactory model.LpSolverFactory) (model.CheckResult, error) {
	if factory == nil {
		factory = minmax.SolverFactory[V]{}
	}
	if lpFactory == nil {
		lpFactory = minmax.LpSolverFactory{}
	}

	switch f.Kind {
	case model.KindAtomicLabel, model.KindBooleanLiteral, model.KindNot, model.KindAnd, model.KindOr:
		set, err := evalStateSet(m, f)
		if err != nil {
			return model.CheckResult{}, err
		}
		return model.CheckResult{Kind: model.ResultQualitative, Qualitative: set}, nil

	case model.KindNext:
		psi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		return Next(ctx, m.Transitions, f.Direction, psi, opts)

	case model.KindUntil:
		phi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		psi, err := evalStateSet(m, *f.Right)
		if err != nil {
			return model.CheckResult{}, err
		}
		return Until(ctx, m.Transitions, m.Initial, f.Direction, phi, psi, opts, factory)

	case model.KindBoundedUntil:
		if !f.HasStepBound || f.StepBound < 0 {
			return model.CheckResult{}, fmt.Errorf("pctl: Check: bounded-until requires a non-negative step bound: %w", ErrInvalidArgument)
		}
		phi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		psi, err := evalStateSet(m, *f.Right)
		if err != nil {
			return model.CheckResult{}, err
		}
		return BoundedUntil(ctx, m.Transitions, f.Direction, phi, psi, uint64(f.StepBound), opts)

	case model.KindGlobally:
		psi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		return Globally(ctx, m.Transitions, m.Initial, f.Direction, psi, opts, factory)

	case model.KindEventually:
		psi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		return Eventually(ctx, m.Transitions, m.Initial, f.Direction, psi, opts, factory)

	case model.KindCumulativeReward:
		if !f.HasStepBound || f.StepBound < 0 {
			return model.CheckResult{}, fmt.Errorf("pctl: Check: cumulative reward requires a non-negative step bound: %w", ErrInvalidArgument)
		}
		rm, err := lookupRewardModel(m, f.RewardModelName)
		if err != nil {
			return model.CheckResult{}, err
		}
		return CumulativeReward(ctx, m.Transitions, f.Direction, rm, uint64(f.StepBound), opts)

	case model.KindInstantaneousReward:
		if !f.HasStepBound || f.StepBound < 0 {
			return model.CheckResult{}, fmt.Errorf("pctl: Check: instantaneous reward requires a non-negative step bound: %w", ErrInvalidArgument)
		}
		rm, err := lookupRewardModel(m, f.RewardModelName)
		if err != nil {
			return model.CheckResult{}, err
		}
		return InstantaneousReward(ctx, m.Transitions, f.Direction, rm, uint64(f.StepBound), opts)

	case model.KindTotalReward, model.KindReachabilityReward:
		rm, err := lookupRewardModel(m, f.RewardModelName)
		if err != nil {
			return model.CheckResult{}, err
		}
		target := bitset.New(m.NumStates())
		if f.Kind == model.KindReachabilityReward {
			var err error
			target, err = evalStateSet(m, *f.Left)
			if err != nil {
				return model.CheckResult{}, err
			}
		}
		return ReachabilityReward(ctx, m.Transitions, f.Direction, rm, target, opts, factory)

	case model.KindLongRunAverage:
		psi, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		return LongRunAverage(ctx, m.Transitions, f.Direction, psi, opts, lpFactory, factory)

	case model.KindConditional:
		target, err := evalStateSet(m, *f.Left)
		if err != nil {
			return model.CheckResult{}, err
		}
		psi, err := evalStateSet(m, *f.Right)
		if err != nil {
			return model.CheckResult{}, err
		}
		return ConditionalProbability(ctx, m.Transitions, m.Initial, f.Direction, target, psi, opts, factory)

	case model.KindMultiObjective:
		return model.CheckResult{}, fmt.Errorf("pctl: Check: multi-objective queries are handled by package multiobj, not pctl.Check: %w", model.ErrUnsupportedFormula)

	default:
		return model.CheckResult{}, fmt.Errorf("pctl: Check: unrecognized formula kind %d: %w", f.Kind, model.ErrUnsupportedFormula)
	}
}

// evalStateSet resolves the Boolean-connective/atomic-label fragment of
// the formula language to a concrete bitset.Set, recursing only over
// that fragment (spec.md §6: "atomic labels and Boolean connectives are
// resolved directly against Model.Labels, never through a MinMax
// solve").
func evalStateSet[V numeric.Value](m *model.Model[V], f model.Formula) (*bitset.Set, error) {
	switch f.Kind {
	case model.KindAtomicLabel:
		set, ok := m.Labels[f.Label]
		if !ok {
			return nil, fmt.Errorf("pctl: evalStateSet: unknown label %q: %w", f.Label, ErrInvalidArgument)
		}
		return set, nil
	case model.KindBooleanLiteral:
		// Formula has no dedicated bool field for this Kind; the
		// constructor is expected to stash "true"/"false" in Label,
		// the same field an atomic label occupies for every other Kind.
		if f.Label == "false" {
			return bitset.New(m.NumStates()), nil
		}
		return bitset.NewFull(m.NumStates()), nil
	case model.KindNot:
		inner, err := evalStateSet(m, *f.Left)
		if err != nil {
			return nil, err
		}
		return inner.Complement(), nil
	case model.KindAnd:
		left, err := evalStateSet(m, *f.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalStateSet(m, *f.Right)
		if err != nil {
			return nil, err
		}
		return left.Intersection(right), nil
	case model.KindOr:
		left, err := evalStateSet(m, *f.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalStateSet(m, *f.Right)
		if err != nil {
			return nil, err
		}
		return left.Union(right), nil
	default:
		return nil, fmt.Errorf("pctl: evalStateSet: formula kind %d is not a state-set expression: %w", f.Kind, ErrInvalidArgument)
	}
}

func lookupRewardModel[V numeric.Value](m *model.Model[V], name string) (*model.RewardModel[V], error) {
	rm, ok := m.Rewards[name]
	if !ok {
		return nil, fmt.Errorf("pctl: Check: reward model %q: %w", name, model.ErrMissingRewardModel)
	}
	return rm, nil
}
