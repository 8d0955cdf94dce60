package fitness

import (
	"fmt"
	"math"
	"strconv"

	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/loss"
	"github.com/snow-ghost/symreg/pkg/cache"
)

var defaultLoss core.ElementwiseLoss = loss.L2()

// EvalLoss returns the raw loss of tree on ds: the custom loss function when
// configured, otherwise the elementwise loss over the selected samples,
// plus the dimensional penalty unless WithoutRegularization is given.
// Evaluation failures yield +Inf; the only errors are configuration errors.
func (s *Scorer) EvalLoss(tree core.Tree, ds *core.Dataset, opts *core.Options, evalOpts ...EvalOption) (float64, error) {
	cfg := newEvalConfig(evalOpts)
	return s.evalLoss(tree, ds, opts, cfg.regularization, cfg.index)
}

// EvalLossBatched is EvalLoss on a mini-batch. A Full selector is replaced
// by a freshly sampled subset of opts.BatchSize indices.
func (s *Scorer) EvalLossBatched(tree core.Tree, ds *core.Dataset, opts *core.Options, evalOpts ...EvalOption) (float64, error) {
	cfg := newEvalConfig(evalOpts)
	idx, err := s.batchIndex(ds, opts, cfg)
	if err != nil {
		return math.Inf(1), err
	}
	return s.evalLoss(tree, ds, opts, cfg.regularization, idx)
}

func (s *Scorer) batchIndex(ds *core.Dataset, opts *core.Options, cfg evalConfig) (core.IndexSelector, error) {
	if !cfg.index.IsFull() {
		return cfg.index, nil
	}
	if opts.BatchSize <= 0 {
		return core.IndexSelector{}, fmt.Errorf("%w: batch size must be positive, got %d", core.ErrInvalidConfig, opts.BatchSize)
	}
	sampler := cfg.sampler
	if sampler == nil {
		sampler = s.sampler
	}
	return sampler.Sample(ds.N, opts.BatchSize), nil
}

func (s *Scorer) evalLoss(tree core.Tree, ds *core.Dataset, opts *core.Options, regularization bool, idx core.IndexSelector) (float64, error) {
	// datasets built without NewDataset have no ID to key on
	cacheable := s.cache != nil && ds.ID != "" && idx.IsFull() && opts.LossFunction == nil
	var key cache.CacheKey
	if cacheable {
		key = cache.GenerateKey(ds.ID, optionsFingerprint(opts), tree.String(), regularization)
		if v, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheHit()
			return v, nil
		}
		s.metrics.RecordCacheMiss()
	}

	var value float64
	if opts.LossFunction != nil {
		v, err := dispatchCustom(opts.LossFunction, tree, ds, opts, idx)
		if err != nil {
			return math.Inf(1), err
		}
		value = v
	} else {
		value = s.elementwiseLoss(tree, ds, opts, idx)
	}

	if regularization && !math.IsInf(value, 1) {
		value += s.Penalty(tree, ds, opts)
	}
	if math.IsNaN(value) {
		value = math.Inf(1)
	}

	mode := "full"
	if !idx.IsFull() {
		mode = "batched"
	}
	s.metrics.RecordEvaluation(mode, value)
	if math.IsInf(value, 1) && s.failureLogs.Allow("evaluation_failure") {
		s.logger.LogEvaluationFailure(tree.String(), idx.String())
	}

	if cacheable {
		s.cache.Set(key, value)
	}
	return value, nil
}

// elementwiseLoss predicts on the selected samples and reduces against the
// targets and weights restricted to the same selector.
func (s *Scorer) elementwiseLoss(tree core.Tree, ds *core.Dataset, opts *core.Options, idx core.IndexSelector) float64 {
	pred, ok := s.Predict(tree, ds, opts, idx)
	if !ok {
		return math.Inf(1)
	}
	l := opts.Loss
	if l == nil {
		l = defaultLoss
	}
	return l.Reduce(pred, ds.Targets(idx), ds.WeightsAt(idx))
}

// optionsFingerprint names the option fields that change a full-dataset
// loss: the elementwise loss and the penalty override.
func optionsFingerprint(opts *core.Options) string {
	l := opts.Loss
	if l == nil {
		l = defaultLoss
	}
	penalty := "default"
	if opts.DimensionalConstraintPenalty != nil {
		penalty = strconv.FormatFloat(*opts.DimensionalConstraintPenalty, 'g', -1, 64)
	}
	return l.Name() + ";penalty=" + penalty
}
