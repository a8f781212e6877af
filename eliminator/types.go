package eliminator

import "context"

// Option configures Eliminate, following the functional-options shape
// shared by every package in this module (graphanalysis.Option,
// sparsematrix's builder knobs).
type Option func(*Options)

// Options holds Eliminate's tunables.
type Options struct {
	Ctx context.Context
}

// DefaultOptions returns the zero-value configuration: context.Background.
func DefaultOptions() Options {
	return Options{Ctx: context.Background()}
}

// WithContext attaches a cancellation context, checked once per MEC
// decomposition round via the delegated graphanalysis call.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Ctx = ctx }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
