package worker

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/fitness"
	"github.com/snow-ghost/symreg/pkg/logging"
	"github.com/snow-ghost/symreg/pkg/metrics"
	"github.com/snow-ghost/symreg/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// Pool scores populations concurrently against one dataset. Every worker
// goroutine draws mini-batches from its own sampler stream.
type Pool struct {
	scorer  *fitness.Scorer
	workers int
	seed    uint64
	calls   atomic.Uint64

	logger  *logging.Logger
	metrics *metrics.FitnessMetrics
	tracer  *tracing.Tracer
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

func WithLogger(l *logging.Logger) PoolOption { return func(p *Pool) { p.logger = l } }

func WithMetrics(m *metrics.FitnessMetrics) PoolOption { return func(p *Pool) { p.metrics = m } }

func WithTracer(t *tracing.Tracer) PoolOption { return func(p *Pool) { p.tracer = t } }

func NewPool(scorer *fitness.Scorer, config *Config, opts ...PoolOption) *Pool {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		scorer:  scorer,
		workers: workers,
		seed:    config.Seed,
		logger:  logging.NewNopLogger(),
		tracer:  tracing.NewNoopTracer(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Report is the outcome of one population pass. Best is -1 when every
// candidate failed.
type Report struct {
	Results []core.ScoreResult
	Best    int
	Failed  int
}

// Calibrate runs baseline calibration. It must complete before the dataset
// is handed to ScorePopulation.
func (p *Pool) Calibrate(ctx context.Context, ds *core.Dataset, opts *core.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := p.scorer.CalibrateBaseline(ctx, ds, opts); err != nil {
		return fmt.Errorf("failed to calibrate baseline: %w", err)
	}
	return nil
}

// ScorePopulation scores every candidate, batched when opts.Batching is set.
// A configuration error from any candidate stops the pass and is returned.
func (p *Pool) ScorePopulation(ctx context.Context, ds *core.Dataset, population []core.Candidate, opts *core.Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := p.tracer.StartPopulationSpan(ctx, ds.ID, len(population), opts.Batching)
	defer span.End()
	start := time.Now()

	// each call gets fresh streams so successive generations see new batches
	call := p.calls.Add(1) - 1
	results := make([]core.ScoreResult, len(population))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < p.workers; w++ {
		sampler := fitness.NewSamplerFrom(p.seed, call*uint64(p.workers)+uint64(w))
		g.Go(func() error {
			for i := w; i < len(population); i += p.workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := p.scoreOne(ds, population[i], opts, sampler)
				if err != nil {
					return fmt.Errorf("candidate %d: %w", i, err)
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.RecordSpanError(span, err)
		return nil, err
	}

	report := summarize(results)
	elapsed := time.Since(start)
	bestScore := math.Inf(1)
	if report.Best >= 0 {
		bestScore = results[report.Best].Score
	}

	p.metrics.RecordPopulation(elapsed)
	p.logger.LogPopulation(ds.ID, len(population), report.Failed, bestScore, elapsed)
	tracing.RecordSpanScore(span, bestScore, report.Failed)
	tracing.RecordSpanDuration(span, elapsed)
	tracing.RecordSpanSuccess(span)
	return report, nil
}

func (p *Pool) scoreOne(ds *core.Dataset, c core.Candidate, opts *core.Options, sampler *fitness.Sampler) (core.ScoreResult, error) {
	if opts.Batching {
		return p.scorer.ScoreBatched(ds, c, opts, fitness.WithSampler(sampler))
	}
	return p.scorer.Score(ds, c, opts)
}

func summarize(results []core.ScoreResult) *Report {
	report := &Report{Results: results, Best: -1}
	for i, r := range results {
		if math.IsInf(r.Score, 1) {
			report.Failed++
			continue
		}
		if report.Best < 0 || r.Score < results[report.Best].Score {
			report.Best = i
		}
	}
	return report
}
