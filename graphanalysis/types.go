package graphanalysis

import "context"

// Option configures the cancellation behavior of the traversal and
// fixed-point routines in this package.
type Option func(*Options)

// Options holds the tunable parameters shared by every exported
// function in this package.
type Options struct {
	// Ctx allows cancellation of long-running fixed-point loops (Prob1
	// computations and MEC decomposition can take O(states) rounds on
	// pathological inputs). Checked once per outer round, matching the
	// teacher's "once per loop" cancellation discipline (bfs.loop).
	Ctx context.Context
}

// DefaultOptions returns the zero-configuration Options: a background
// context.
func DefaultOptions() Options {
	return Options{Ctx: context.Background()}
}

// WithContext installs ctx for cancellation. A nil ctx is ignored.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx != nil {
			o.Ctx = ctx
		}
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func cancelled(o Options) error {
	select {
	case <-o.Ctx.Done():
		return o.Ctx.Err()
	default:
		return nil
	}
}
