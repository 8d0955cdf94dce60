package fitness

import (
	"context"
	"math"
	"time"

	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/pkg/tracing"
)

// Baseline computes the calibration record for ds: the unregularized loss
// of the constant-zero expression when finite, otherwise the default
// (normalization disabled). It does not modify ds.
func (s *Scorer) Baseline(ctx context.Context, ds *core.Dataset, opts *core.Options) (core.Calibration, error) {
	_, span := s.tracer.StartCalibrationSpan(ctx, ds.ID, ds.N)
	defer span.End()
	start := time.Now()

	zero := s.constants.Constant(0, opts, ds)
	value, err := s.evalLoss(zero, ds, opts, false, core.Full())
	if err != nil {
		tracing.RecordSpanError(span, err)
		return core.DefaultCalibration(), err
	}

	cal := core.DefaultCalibration()
	if !math.IsInf(value, 0) && !math.IsNaN(value) {
		cal = core.Calibration{BaselineLoss: value, UseBaseline: true}
	}

	s.logger.LogCalibration(ds.ID, cal.BaselineLoss, cal.UseBaseline, time.Since(start))
	s.metrics.RecordBaseline(ds.ID, cal.BaselineLoss)
	tracing.RecordSpanSuccess(span)
	return cal, nil
}

// CalibrateBaseline computes the baseline and stores it on ds. Call it once,
// before ds is shared with concurrent scorers.
func (s *Scorer) CalibrateBaseline(ctx context.Context, ds *core.Dataset, opts *core.Options) error {
	cal, err := s.Baseline(ctx, ds, opts)
	if err != nil {
		return err
	}
	ds.SetCalibration(cal)
	return nil
}
