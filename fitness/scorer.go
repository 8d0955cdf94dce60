// Package fitness turns a candidate expression, a dataset and a scoring
// configuration into a rank score: loss (elementwise or custom), optional
// dimensional regularization, baseline normalization and a parsimony term.
//
// A Scorer holds only read-only collaborators and concurrency-safe
// instrumentation, so one instance may be shared by every search goroutine.
package fitness

import (
	"math"
	"time"

	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/pkg/cache"
	"github.com/snow-ghost/symreg/pkg/limiter"
	"github.com/snow-ghost/symreg/pkg/logging"
	"github.com/snow-ghost/symreg/pkg/metrics"
	"github.com/snow-ghost/symreg/pkg/tracing"
)

// MinNormalization is the floor applied to the baseline when turning a
// loss into a score.
const MinNormalization = 0.01

type Scorer struct {
	evaluator  core.TreeEvaluator
	complexity core.ComplexityMeasure
	dimensions core.DimensionalChecker
	constants  core.ExpressionBuilder

	cache       *cache.LossCache
	logger      *logging.Logger
	metrics     *metrics.FitnessMetrics
	tracer      *tracing.Tracer
	failureLogs *limiter.RateLimiter
	sampler     BatchSampler
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLossCache memoizes full-dataset losses of the elementwise path.
func WithLossCache(c *cache.LossCache) Option { return func(s *Scorer) { s.cache = c } }

func WithLogger(l *logging.Logger) Option { return func(s *Scorer) { s.logger = l } }

func WithMetrics(m *metrics.FitnessMetrics) Option { return func(s *Scorer) { s.metrics = m } }

func WithTracer(t *tracing.Tracer) Option { return func(s *Scorer) { s.tracer = t } }

// WithDimensions sets the dimensional checker. Without one no candidate is
// ever penalized.
func WithDimensions(d core.DimensionalChecker) Option { return func(s *Scorer) { s.dimensions = d } }

// WithSharedSampler replaces the scorer's fallback sampler, used by batched
// calls that do not bring their own.
func WithSharedSampler(b BatchSampler) Option { return func(s *Scorer) { s.sampler = b } }

// NewScorer wires the external collaborators. eval, complexity and
// constants are required.
func NewScorer(eval core.TreeEvaluator, complexity core.ComplexityMeasure, constants core.ExpressionBuilder, opts ...Option) *Scorer {
	s := &Scorer{
		evaluator:   eval,
		complexity:  complexity,
		constants:   constants,
		logger:      logging.NewNopLogger(),
		tracer:      tracing.NewNoopTracer(),
		failureLogs: limiter.NewRateLimiter(1, 10),
		sampler:     NewLockedSampler(NewSampler(uint64(time.Now().UnixNano()))),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type evalConfig struct {
	index          core.IndexSelector
	regularization bool
	complexity     int
	hasComplexity  bool
	sampler        BatchSampler
}

// EvalOption adjusts a single loss or score call.
type EvalOption func(*evalConfig)

// WithIndex restricts evaluation to the given selector.
func WithIndex(idx core.IndexSelector) EvalOption {
	return func(c *evalConfig) { c.index = idx }
}

// WithoutRegularization drops the dimensional penalty from the loss.
func WithoutRegularization() EvalOption {
	return func(c *evalConfig) { c.regularization = false }
}

// WithComplexity supplies a precomputed complexity for scoring.
func WithComplexity(complexity int) EvalOption {
	return func(c *evalConfig) {
		c.complexity = complexity
		c.hasComplexity = true
	}
}

// WithSampler makes batched calls draw from b, typically a per-goroutine
// Sampler.
func WithSampler(b BatchSampler) EvalOption {
	return func(c *evalConfig) { c.sampler = b }
}

func newEvalConfig(opts []EvalOption) evalConfig {
	cfg := evalConfig{index: core.Full(), regularization: true}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Score evaluates the candidate (on the full dataset unless WithIndex is
// given) and converts the loss into a rank score.
func (s *Scorer) Score(ds *core.Dataset, c core.Candidate, opts *core.Options, evalOpts ...EvalOption) (core.ScoreResult, error) {
	cfg := newEvalConfig(evalOpts)
	loss, err := s.evalLoss(c.Expression(), ds, opts, cfg.regularization, cfg.index)
	if err != nil {
		return core.ScoreResult{}, err
	}
	return s.result(loss, ds, c, opts, cfg), nil
}

// ScoreBatched is Score on a mini-batch: when no subset is supplied one is
// drawn with the call's sampler.
func (s *Scorer) ScoreBatched(ds *core.Dataset, c core.Candidate, opts *core.Options, evalOpts ...EvalOption) (core.ScoreResult, error) {
	cfg := newEvalConfig(evalOpts)
	idx, err := s.batchIndex(ds, opts, cfg)
	if err != nil {
		return core.ScoreResult{}, err
	}
	loss, err := s.evalLoss(c.Expression(), ds, opts, cfg.regularization, idx)
	if err != nil {
		return core.ScoreResult{}, err
	}
	return s.result(loss, ds, c, opts, cfg), nil
}

func (s *Scorer) result(loss float64, ds *core.Dataset, c core.Candidate, opts *core.Options, cfg evalConfig) core.ScoreResult {
	complexity := cfg.complexity
	if !cfg.hasComplexity {
		complexity = s.complexityOf(c, opts)
	}
	return core.ScoreResult{
		Score: LossToScore(loss, ds.Calibration, complexity, opts.Parsimony),
		Loss:  loss,
	}
}

func (s *Scorer) complexityOf(c core.Candidate, opts *core.Options) int {
	if cached, ok := c.(interface{ CachedComplexity() (int, bool) }); ok {
		if v, ok := cached.CachedComplexity(); ok {
			return v
		}
	}
	if s.complexity == nil {
		return 0
	}
	return s.complexity.Complexity(c, opts)
}

// Normalization is the divisor applied to raw losses: the baseline when it
// is enabled and at least MinNormalization, else MinNormalization.
func Normalization(cal core.Calibration) float64 {
	if cal.UseBaseline && cal.BaselineLoss >= MinNormalization {
		return cal.BaselineLoss
	}
	return MinNormalization
}

// LossToScore combines a raw loss with the calibration and the parsimony
// term. An infinite loss yields an infinite score.
func LossToScore(loss float64, cal core.Calibration, complexity int, parsimony float64) float64 {
	if math.IsInf(loss, 1) || math.IsNaN(loss) {
		return math.Inf(1)
	}
	return loss/Normalization(cal) + float64(complexity)*parsimony
}
