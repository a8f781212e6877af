package pctl

import (
	"context"
	"fmt"

	"github.com/probmc/mdpcore/bitset"
	"github.com/probmc/mdpcore/model"
	"github.com/probmc/mdpcore/numeric"
	"github.com/probmc/mdpcore/sparsematrix"
	"github.com/probmc/mdpcore/vecutil"
)

// Eventually computes P_dir(F ψ), expressed via Until with φ = true
// (spec.md §4.7 "Next, globally, eventually: expressed via until with
// true/negation as per PCTL semantics").
func Eventually[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], initial *bitset.Set, dir model.OptimizationDirection, psi *bitset.Set, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	phi := bitset.NewFull(trans.NumStates())
	return Until(ctx, trans, initial, dir, phi, psi, opts, factory)
}

// Globally computes P_dir(G ψ) via the De Morgan identity
// G ψ = ¬ F ¬ψ, so P_min(G ψ) = 1 − P_max(F ¬ψ) and symmetrically for
// Max (spec.md §4.7, §8's complement law).
func Globally[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], initial *bitset.Set, dir model.OptimizationDirection, psi *bitset.Set, opts model.Options, factory model.MinMaxLinearEquationSolverFactory[V]) (model.CheckResult, error) {
	flipped := flipDirection(dir)
	notPsi := psi.Complement()
	res, err := Eventually(ctx, trans, initial, flipped, notPsi, opts, factory)
	if err != nil {
		return model.CheckResult{}, err
	}
	one := numeric.OneOf(trans.Kind())
	for i, v := range res.Quantitative {
		res.Quantitative[i] = one.Float64() - v
	}
	// A scheduler synthesized for the flipped query answers "how to
	// maximize/minimize reaching ¬ψ"; it is not meaningful as a G-ψ
	// scheduler (the complement law relates values, not schedulers), so
	// it is dropped here rather than handed back under a misleading
	// reading.
	res.Scheduler = nil
	return res, nil
}

// Next computes P_dir(X ψ): one Bellman step with the all-psi indicator
// as the additive term, no iteration needed: RowGroupConstrainedSum over
// every state followed by ReduceByGroup, with no Submatrix and no
// qualitative maybe-set computation (every state participates — X has
// no phi restriction).
func Next[V numeric.Value](ctx context.Context, trans *sparsematrix.Matrix[V], dir model.OptimizationDirection, psi *bitset.Set, opts model.Options) (model.CheckResult, error) {
	n := trans.NumStates()
	if psi.Len() != n {
		return model.CheckResult{}, fmt.Errorf("pctl: Next: psi length mismatch with %d states: %w", n, ErrInvalidArgument)
	}
	full := bitset.NewFull(n)
	b := trans.RowGroupConstrainedSum(full, psi)
	op := vecutil.ReduceMin
	if dir == model.Max {
		op = vecutil.ReduceMax
	}
	x := make([]V, n)
	vecutil.ReduceByGroup(b, trans.Grp(), op, x, nil)
	return model.CheckResult{Kind: model.ResultQuantitative, Quantitative: toFloat64(x)}, nil
}

func flipDirection(dir model.OptimizationDirection) model.OptimizationDirection {
	if dir == model.Max {
		return model.Min
	}
	return model.Max
}
