package fitness

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/expr"
	"github.com/snow-ghost/symreg/loss"
	"github.com/snow-ghost/symreg/pkg/cache"
	"github.com/snow-ghost/symreg/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(opts ...Option) *Scorer {
	opts = append([]Option{WithDimensions(expr.UnitChecker{})}, opts...)
	return NewScorer(expr.Evaluator{}, expr.Complexity{}, expr.Constants{}, opts...)
}

func mustDataset(t *testing.T, X [][]float64, y, w []float64) *core.Dataset {
	t.Helper()
	ds, err := core.NewDataset(X, y, w)
	require.NoError(t, err)
	return ds
}

// failingEvaluator reports every evaluation as a domain error.
type failingEvaluator struct{}

func (failingEvaluator) Eval(core.Tree, [][]float64, int, *core.Options) ([]float64, bool) {
	return nil, false
}

// constEvaluator ignores the tree and predicts fixed values.
type constEvaluator struct{ pred []float64 }

func (e constEvaluator) Eval(_ core.Tree, _ [][]float64, rows int, _ *core.Options) ([]float64, bool) {
	return e.pred[:rows], true
}

func TestScorePerfectFit(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 3}, nil)
	opts := &core.Options{Loss: loss.L2(), Parsimony: 0.01}

	res, err := newTestScorer().Score(ds, expr.Feature(0), opts, WithComplexity(2))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Loss)
	assert.InDelta(t, 0.02, res.Score, 1e-12)
}

func TestZeroWeightExcludesSample(t *testing.T) {
	X := [][]float64{{1, 2, 3}}
	y := []float64{0, 0, 0}
	s := newTestScorer()
	opts := &core.Options{}

	weighted := mustDataset(t, X, y, []float64{1, 1, 0})
	got, err := s.EvalLoss(expr.Feature(0), weighted, opts)
	require.NoError(t, err)

	firstTwo := mustDataset(t, [][]float64{{1, 2}}, []float64{0, 0}, nil)
	want, err := s.EvalLoss(expr.Feature(0), firstTwo, opts)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestUniformWeightsMatchUnweighted(t *testing.T) {
	X := [][]float64{{0.5, 1, 4, -2}}
	y := []float64{1, 2, 3, 4}
	s := newTestScorer()
	tree := expr.Mul(expr.Const(1.5), expr.Feature(0))

	for _, l := range []core.ElementwiseLoss{
		loss.L2(),
		loss.Huber(1),
		loss.NewScalar("abs", func(p, y float64) float64 { return math.Abs(p - y) }),
	} {
		opts := &core.Options{Loss: l}
		plain, err := s.EvalLoss(tree, mustDataset(t, X, y, nil), opts)
		require.NoError(t, err)
		ones, err := s.EvalLoss(tree, mustDataset(t, X, y, []float64{1, 1, 1, 1}), opts)
		require.NoError(t, err)
		assert.InDelta(t, plain, ones, 1e-12, l.Name())
	}
}

func TestBatchedFullCoverageMatchesFull(t *testing.T) {
	ds := mustDataset(t,
		[][]float64{{1, 2, 3, 4, 5}},
		[]float64{2, 3, 5, 4, 6},
		[]float64{1, 2, 1, 0.5, 1},
	)
	opts := &core.Options{Batching: true, BatchSize: 3}
	s := newTestScorer()
	tree := expr.Add(expr.Feature(0), expr.Const(0.5))

	full, err := s.EvalLoss(tree, ds, opts)
	require.NoError(t, err)
	batched, err := s.EvalLossBatched(tree, ds, opts, WithIndex(core.Subset([]int{0, 1, 2, 3, 4})))
	require.NoError(t, err)
	assert.InDelta(t, full, batched, 1e-12)
}

func TestEvalLossBatchedSamples(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3, 4}}, []float64{1, 2, 3, 4}, nil)
	opts := &core.Options{Batching: true, BatchSize: 8}

	var seen core.IndexSelector
	opts.LossFunction = core.NewBatchedLoss(func(_ core.Tree, _ *core.Dataset, _ *core.Options, idx core.IndexSelector) float64 {
		seen = idx
		return 1
	})

	_, err := newTestScorer().EvalLossBatched(expr.Feature(0), ds, opts, WithSampler(NewSampler(1)))
	require.NoError(t, err)
	require.False(t, seen.IsFull())
	assert.Len(t, seen.Indices(), 8)

	opts.BatchSize = 0
	_, err = newTestScorer().EvalLossBatched(expr.Feature(0), ds, opts)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestScoreIncreasesWithComplexity(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 4}, nil)
	opts := &core.Options{Parsimony: 0.1}
	s := newTestScorer()

	prev := math.Inf(-1)
	for c := 0; c < 10; c++ {
		res, err := s.Score(ds, expr.Feature(0), opts, WithComplexity(c))
		require.NoError(t, err)
		assert.Greater(t, res.Score, prev)
		prev = res.Score
	}
}

func TestNormalization(t *testing.T) {
	assert.Equal(t, MinNormalization, Normalization(core.Calibration{BaselineLoss: 5, UseBaseline: false}))
	assert.Equal(t, MinNormalization, Normalization(core.Calibration{BaselineLoss: 0.001, UseBaseline: true}))
	assert.Equal(t, 5.0, Normalization(core.Calibration{BaselineLoss: 5, UseBaseline: true}))
	assert.Equal(t, 0.01, Normalization(core.Calibration{BaselineLoss: 0.01, UseBaseline: true}))
	assert.Equal(t, MinNormalization, Normalization(core.DefaultCalibration()))
}

func TestFailedEvaluationScoresInfinite(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 3}, nil)
	s := NewScorer(failingEvaluator{}, expr.Complexity{}, expr.Constants{})

	for _, parsimony := range []float64{0, 0.5, 100} {
		for _, c := range []int{0, 1, 50} {
			res, err := s.Score(ds, expr.Feature(0), &core.Options{Parsimony: parsimony}, WithComplexity(c))
			require.NoError(t, err)
			assert.True(t, math.IsInf(res.Loss, 1))
			assert.True(t, math.IsInf(res.Score, 1))
		}
	}

	// domain errors from a real tree behave the same way
	res, err := newTestScorer().Score(ds, expr.Unary(expr.OpLog, expr.Sub(expr.Feature(0), expr.Const(2))), &core.Options{})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Score, 1))
}

func TestPredictRejectsBadEvaluatorOutput(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 3}, nil)

	short := NewScorer(evaluatorFunc(func(core.Tree, [][]float64, int, *core.Options) ([]float64, bool) {
		return []float64{1}, true
	}), nil, expr.Constants{})
	_, ok := short.Predict(expr.Feature(0), ds, &core.Options{}, core.Full())
	assert.False(t, ok)

	nan := NewScorer(evaluatorFunc(func(core.Tree, [][]float64, int, *core.Options) ([]float64, bool) {
		return []float64{1, math.NaN(), 3}, true
	}), nil, expr.Constants{})
	_, ok = nan.Predict(expr.Feature(0), ds, &core.Options{}, core.Full())
	assert.False(t, ok)

	l, err := nan.EvalLoss(expr.Feature(0), ds, &core.Options{})
	require.NoError(t, err)
	assert.True(t, math.IsInf(l, 1))
}

type evaluatorFunc func(core.Tree, [][]float64, int, *core.Options) ([]float64, bool)

func (f evaluatorFunc) Eval(t core.Tree, X [][]float64, rows int, o *core.Options) ([]float64, bool) {
	return f(t, X, rows, o)
}

func TestPredictSubsetsFeatures(t *testing.T) {
	ds := mustDataset(t, [][]float64{{10, 20, 30}}, []float64{0, 0, 0}, nil)
	pred, ok := newTestScorer().Predict(expr.Feature(0), ds, &core.Options{}, core.Subset([]int{2, 2, 0}))
	require.True(t, ok)
	assert.Equal(t, []float64{30, 30, 10}, pred)
}

func unitDataset(t *testing.T) *core.Dataset {
	t.Helper()
	ds := mustDataset(t, [][]float64{{1, 2}, {1, 1}}, []float64{1, 2}, nil)
	_, err := ds.WithUnits([]core.Dimensions{{"m": 1}, {"s": 1}}, core.Dimensions{"m": 1})
	require.NoError(t, err)
	return ds
}

func TestPenalty(t *testing.T) {
	ds := unitDataset(t)
	s := newTestScorer()
	bad := expr.Add(expr.Feature(0), expr.Feature(1))

	assert.Equal(t, 0.0, s.Penalty(expr.Feature(0), ds, &core.Options{}))
	assert.Equal(t, 1000.0, s.Penalty(bad, ds, &core.Options{}))

	override := 7.5
	assert.Equal(t, 7.5, s.Penalty(bad, ds, &core.Options{DimensionalConstraintPenalty: &override}))

	// without a checker nothing is penalized
	plain := NewScorer(expr.Evaluator{}, expr.Complexity{}, expr.Constants{})
	assert.Equal(t, 0.0, plain.Penalty(bad, ds, &core.Options{}))
}

func TestRegularizationAddsFlatPenalty(t *testing.T) {
	ds := unitDataset(t)
	s := newTestScorer()
	bad := expr.Add(expr.Feature(0), expr.Feature(1))
	opts := &core.Options{}

	raw, err := s.EvalLoss(bad, ds, opts, WithoutRegularization())
	require.NoError(t, err)
	regularized, err := s.EvalLoss(bad, ds, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1000, regularized-raw, 1e-9)
}

func TestCustomFullLossRejectedWhenBatching(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2}}, []float64{1, 2}, nil)
	called := false
	opts := &core.Options{
		Batching:  true,
		BatchSize: 2,
		LossFunction: core.NewFullLoss(func(core.Tree, *core.Dataset, *core.Options) float64 {
			called = true
			return 0
		}),
	}
	s := newTestScorer()

	_, err := s.EvalLoss(expr.Feature(0), ds, opts)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	_, err = s.ScoreBatched(ds, expr.Feature(0), opts)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	_, err = s.Score(ds, expr.Feature(0), opts)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.False(t, called)

	opts.Batching = false
	l, err := s.EvalLoss(expr.Feature(0), ds, opts)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 0.0, l)
}

func TestCustomBatchedLossReceivesUntransformedInputs(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 3}, nil)
	tree := expr.Feature(0)
	var gotTree core.Tree
	var gotDS *core.Dataset
	var gotIdx core.IndexSelector
	opts := &core.Options{
		LossFunction: core.NewBatchedLoss(func(t core.Tree, d *core.Dataset, _ *core.Options, idx core.IndexSelector) float64 {
			gotTree, gotDS, gotIdx = t, d, idx
			return 4
		}),
	}

	l, err := newTestScorer().EvalLoss(tree, ds, opts, WithIndex(core.Subset([]int{1})))
	require.NoError(t, err)
	assert.Equal(t, 4.0, l)
	assert.Same(t, tree, gotTree)
	assert.Same(t, ds, gotDS)
	assert.Equal(t, []int{1}, gotIdx.Indices())
}

func TestCustomLossNaNBecomesInfinite(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1}}, []float64{1}, nil)
	opts := &core.Options{LossFunction: core.NewFullLoss(func(core.Tree, *core.Dataset, *core.Options) float64 {
		return math.NaN()
	})}
	res, err := newTestScorer().Score(ds, expr.Feature(0), opts)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Loss, 1))
	assert.True(t, math.IsInf(res.Score, 1))
}

func TestBaselineCalibration(t *testing.T) {
	// zero expression against y gives mean(y^2) = (1+4+16+1)/4 = 5.5
	ds := mustDataset(t, [][]float64{{0, 0, 0, 0}}, []float64{1, 2, 4, 1}, nil)
	opts := &core.Options{}
	s := newTestScorer()

	require.NoError(t, s.CalibrateBaseline(context.Background(), ds, opts))
	assert.Equal(t, core.Calibration{BaselineLoss: 5.5, UseBaseline: true}, ds.Calibration)

	res, err := s.Score(ds, expr.Const(0), opts, WithComplexity(0))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Score, 1e-12)
}

func TestBaselineScenario(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2}}, []float64{0, 0}, nil)
	s := NewScorer(constEvaluator{pred: []float64{math.Sqrt(5), math.Sqrt(5)}}, expr.Complexity{}, expr.Constants{})
	opts := &core.Options{}

	cal, err := s.Baseline(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cal.BaselineLoss, 1e-12)
	assert.True(t, cal.UseBaseline)
	// Baseline alone does not touch the dataset
	assert.Equal(t, core.DefaultCalibration(), ds.Calibration)

	ds.SetCalibration(cal)
	res, err := s.Score(ds, expr.Feature(0), opts, WithComplexity(0))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Loss, 1e-12)
	assert.InDelta(t, 1.0, res.Score, 1e-12)
}

func TestBaselineDegenerate(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2}}, []float64{1, 2}, nil)
	s := NewScorer(failingEvaluator{}, expr.Complexity{}, expr.Constants{})

	ds.SetCalibration(core.Calibration{BaselineLoss: 3, UseBaseline: true})
	require.NoError(t, s.CalibrateBaseline(context.Background(), ds, &core.Options{}))
	assert.Equal(t, core.Calibration{BaselineLoss: 1, UseBaseline: false}, ds.Calibration)
}

func TestBaselineSkipsRegularization(t *testing.T) {
	ds := unitDataset(t)
	s := NewScorer(expr.Evaluator{}, expr.Complexity{}, constantsFunc(func() core.Tree {
		// a tree that violates units; baseline must not pay the penalty
		return expr.Mul(expr.Const(0), expr.Add(expr.Feature(0), expr.Feature(1)))
	}), WithDimensions(expr.UnitChecker{}))

	cal, err := s.Baseline(context.Background(), ds, &core.Options{})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cal.BaselineLoss, 1e-12)
}

type constantsFunc func() core.Tree

func (f constantsFunc) Constant(float64, *core.Options, *core.Dataset) core.Tree { return f() }

func TestBaselineConfigError(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1}}, []float64{1}, nil)
	opts := &core.Options{Batching: true, BatchSize: 1, LossFunction: core.NewFullLoss(func(core.Tree, *core.Dataset, *core.Options) float64 { return 1 })}
	err := newTestScorer().CalibrateBaseline(context.Background(), ds, opts)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, core.DefaultCalibration(), ds.Calibration)
}

func TestMemberCachedComplexity(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2}}, []float64{1, 2}, nil)
	opts := &core.Options{Parsimony: 1}
	s := newTestScorer()
	tree := expr.Add(expr.Feature(0), expr.Const(0))

	res, err := s.Score(ds, core.NewMember(tree), opts)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Score, 1e-12)

	res, err = s.Score(ds, core.NewMemberWithComplexity(tree, 10), opts)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.Score, 1e-12)

	res, err = s.Score(ds, core.NewMemberWithComplexity(tree, 10), opts, WithComplexity(1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Score, 1e-12)
}

func TestScoreBatchedUsesSampler(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3, 4}}, []float64{1, 2, 3, 5}, nil)
	opts := &core.Options{Batching: true, BatchSize: 16, Parsimony: 0.01}
	s := newTestScorer()
	tree := expr.Feature(0)

	a, err := s.ScoreBatched(ds, tree, opts, WithSampler(NewSampler(42)))
	require.NoError(t, err)
	b, err := s.ScoreBatched(ds, tree, opts, WithSampler(NewSampler(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	explicit, err := s.ScoreBatched(ds, tree, opts, WithIndex(core.Subset([]int{0, 1, 2})))
	require.NoError(t, err)
	assert.Equal(t, 0.0, explicit.Loss)
}

func TestLossCacheServesFullEvaluations(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{1, 2, 4}, nil)
	c, err := cache.NewLossCache(nil)
	require.NoError(t, err)
	m := metrics.NewFitnessMetrics(prometheus.NewRegistry())

	calls := 0
	eval := evaluatorFunc(func(t core.Tree, X [][]float64, rows int, o *core.Options) ([]float64, bool) {
		calls++
		return expr.Evaluator{}.Eval(t, X, rows, o)
	})
	s := NewScorer(eval, expr.Complexity{}, expr.Constants{}, WithLossCache(c), WithMetrics(m))
	opts := &core.Options{}

	first, err := s.EvalLoss(expr.Feature(0), ds, opts)
	require.NoError(t, err)
	second, err := s.EvalLoss(expr.Feature(0), ds, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	// subsets are never cached
	_, err = s.EvalLoss(expr.Feature(0), ds, opts, WithIndex(core.Subset([]int{0})))
	require.NoError(t, err)
	_, err = s.EvalLoss(expr.Feature(0), ds, opts, WithIndex(core.Subset([]int{0})))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("batched", "ok")))
}

func TestConcurrentScoring(t *testing.T) {
	X := [][]float64{make([]float64, 200)}
	y := make([]float64, 200)
	for i := range y {
		X[0][i] = float64(i) / 10
		y[i] = 2*X[0][i] + 1
	}
	ds := mustDataset(t, X, y, nil)
	opts := &core.Options{Batching: true, BatchSize: 32, Parsimony: 0.001}
	s := newTestScorer()
	require.NoError(t, s.CalibrateBaseline(context.Background(), ds, opts))

	tree := expr.Add(expr.Mul(expr.Const(2), expr.Feature(0)), expr.Const(1))
	var wg sync.WaitGroup
	results := make([]core.ScoreResult, 16)
	for w := range results {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sampler := NewSamplerFrom(7, uint64(w))
			for i := 0; i < 20; i++ {
				res, err := s.ScoreBatched(ds, tree, opts, WithSampler(sampler))
				if err != nil {
					t.Error(err)
					return
				}
				results[w] = res
			}
		}(w)
	}
	wg.Wait()

	for _, r := range results {
		assert.InDelta(t, 0, r.Loss, 1e-9)
		assert.InDelta(t, 5*0.001, r.Score, 1e-9)
	}
}

func TestLossCacheKeysOnOptions(t *testing.T) {
	ds := mustDataset(t, [][]float64{{1, 2, 3}}, []float64{4, 5, 6}, nil)
	c, err := cache.NewLossCache(nil)
	require.NoError(t, err)
	s := newTestScorer(WithLossCache(c))
	tree := expr.Feature(0)

	l2, err := s.EvalLoss(tree, ds, &core.Options{Loss: loss.L2()})
	require.NoError(t, err)
	assert.InDelta(t, 9, l2, 1e-12)

	l1, err := s.EvalLoss(tree, ds, &core.Options{Loss: loss.L1()})
	require.NoError(t, err)
	assert.InDelta(t, 3, l1, 1e-12)

	h1, err := s.EvalLoss(tree, ds, &core.Options{Loss: loss.Huber(1)})
	require.NoError(t, err)
	h2, err := s.EvalLoss(tree, ds, &core.Options{Loss: loss.Huber(2)})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, h1, 1e-12)
	assert.InDelta(t, 4, h2, 1e-12)
	assert.Equal(t, 4, c.Len())
}

func TestLossCacheKeysOnPenaltyOverride(t *testing.T) {
	ds := unitDataset(t)
	c, err := cache.NewLossCache(nil)
	require.NoError(t, err)
	s := newTestScorer(WithLossCache(c))
	bad := expr.Add(expr.Feature(0), expr.Feature(1))

	raw, err := s.EvalLoss(bad, ds, &core.Options{}, WithoutRegularization())
	require.NoError(t, err)
	byDefault, err := s.EvalLoss(bad, ds, &core.Options{})
	require.NoError(t, err)
	override := 5.0
	overridden, err := s.EvalLoss(bad, ds, &core.Options{DimensionalConstraintPenalty: &override})
	require.NoError(t, err)

	assert.InDelta(t, 1000, byDefault-raw, 1e-9)
	assert.InDelta(t, 5, overridden-raw, 1e-9)
}

func TestLossCacheSkipsDatasetsWithoutID(t *testing.T) {
	c, err := cache.NewLossCache(nil)
	require.NoError(t, err)
	s := newTestScorer(WithLossCache(c))
	a := &core.Dataset{X: [][]float64{{1, 2}}, Y: []float64{1, 2}, N: 2}
	b := &core.Dataset{X: [][]float64{{1, 2}}, Y: []float64{3, 4}, N: 2}

	la, err := s.EvalLoss(expr.Feature(0), a, &core.Options{})
	require.NoError(t, err)
	lb, err := s.EvalLoss(expr.Feature(0), b, &core.Options{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, la)
	assert.InDelta(t, 4, lb, 1e-12)
	assert.Equal(t, 0, c.Len())
}

func TestDatasetWithoutFeatures(t *testing.T) {
	ds := mustDataset(t, nil, []float64{1, 2, 3}, nil)
	s := newTestScorer()
	opts := &core.Options{}

	cal, err := s.Baseline(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.True(t, cal.UseBaseline)
	assert.InDelta(t, 14.0/3, cal.BaselineLoss, 1e-12)

	l, err := s.EvalLoss(expr.Const(2), ds, opts)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3, l, 1e-12)

	ds.SetCalibration(cal)
	res, err := s.Score(ds, expr.Const(2), opts, WithIndex(core.Subset([]int{0, 2})))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Loss, 1e-12)
	assert.InDelta(t, 3.0/14, res.Score, 1e-12)
}

func TestSharedSamplerDrawsBatches(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0, 1, 2, 3, 4, 5, 6, 7}}, []float64{0, 0, 0, 0, 0, 0, 0, 0}, nil)
	var got []int
	opts := &core.Options{
		Batching:  true,
		BatchSize: 5,
		LossFunction: core.NewBatchedLoss(func(_ core.Tree, _ *core.Dataset, _ *core.Options, idx core.IndexSelector) float64 {
			got = idx.Indices()
			return 0
		}),
	}

	s := newTestScorer(WithSharedSampler(NewLockedSampler(NewSampler(7))))
	_, err := s.ScoreBatched(ds, expr.Feature(0), opts)
	require.NoError(t, err)

	assert.Equal(t, NewSampler(7).Sample(8, 5).Indices(), got)
}
