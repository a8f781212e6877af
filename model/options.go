package model

// Technique selects the MinMax solver back-end (spec.md §4.6).
type Technique int

const (
	ValueIteration Technique = iota
	PolicyIteration
	LinearProgramming
)

// Options configures a single query end to end (spec.md §6). Built with
// the teacher's functional-options idiom: DefaultOptions plus a chain of
// Option values, mirroring matrix.Option / bfs.Option.
type Options struct {
	Precision             float64
	Relative              bool
	MaxIterations         uint64
	MultiObjectiveMaxSteps uint64
	Technique             Technique
	ProduceScheduler      bool
	QualitativeOnly       bool

	// ForceRationalArithmetic records a request for exact arithmetic
	// (set by WithRationalArithmetic). No solver in this module reads
	// it: the arithmetic is fixed by the numeric.Value type the caller
	// instantiates matrices and solvers with (numeric.Rational for
	// exact arithmetic).
	ForceRationalArithmetic bool

	// ParetoCSVDir, when non-empty, is a destination directory for the
	// three plot-data CSV files a two-objective Pareto query may emit
	// (spec.md §6). Left empty, no file I/O happens.
	ParetoCSVDir string
}

// DefaultOptions returns the Options every query starts from before
// caller-supplied Option values are applied.
func DefaultOptions() Options {
	return Options{
		Precision:              1e-6,
		Relative:               false,
		MaxIterations:          1_000_000,
		MultiObjectiveMaxSteps: 10_000,
		Technique:              ValueIteration,
		ProduceScheduler:       false,
		QualitativeOnly:        false,
	}
}

// Option mutates an Options value under construction.
type Option func(*Options)

func WithPrecision(eps float64) Option { return func(o *Options) { o.Precision = eps } }
func WithRelativePrecision() Option    { return func(o *Options) { o.Relative = true } }
func WithMaxIterations(n uint64) Option {
	return func(o *Options) { o.MaxIterations = n }
}
func WithMultiObjectiveMaxSteps(n uint64) Option {
	return func(o *Options) { o.MultiObjectiveMaxSteps = n }
}
func WithTechnique(t Technique) Option { return func(o *Options) { o.Technique = t } }
func WithScheduler() Option            { return func(o *Options) { o.ProduceScheduler = true } }
func WithQualitativeOnly() Option      { return func(o *Options) { o.QualitativeOnly = true } }
func WithRationalArithmetic() Option {
	return func(o *Options) { o.ForceRationalArithmetic = true }
}
func WithParetoCSVDir(dir string) Option { return func(o *Options) { o.ParetoCSVDir = dir } }

// NewOptions applies opts over DefaultOptions, returning the resolved
// Options used by a query.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
