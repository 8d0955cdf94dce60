package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FitnessMetrics holds all Prometheus metrics for candidate scoring.
// A nil *FitnessMetrics is valid and records nothing.
type FitnessMetrics struct {
	// Evaluation metrics
	EvaluationsTotal *prometheus.CounterVec
	LossHistogram    *prometheus.HistogramVec

	// Regularization metrics
	DimensionalViolationsTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Calibration metrics
	BaselineLoss *prometheus.GaugeVec

	// Population metrics
	PopulationDuration prometheus.Histogram
}

// NewFitnessMetrics registers the metrics with reg. Passing nil uses the
// default registerer.
func NewFitnessMetrics(reg prometheus.Registerer) *FitnessMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &FitnessMetrics{
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symreg_evaluations_total",
				Help: "Total number of candidate loss evaluations",
			},
			[]string{"mode", "status"},
		),

		LossHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symreg_loss",
				Help:    "Finite raw losses of evaluated candidates",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 13),
			},
			[]string{"mode"},
		),

		DimensionalViolationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "symreg_dimensional_violations_total",
				Help: "Total number of candidates penalized for inconsistent units",
			},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "symreg_loss_cache_hits_total",
				Help: "Total number of loss cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "symreg_loss_cache_misses_total",
				Help: "Total number of loss cache misses",
			},
		),

		BaselineLoss: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "symreg_baseline_loss",
				Help: "Calibrated baseline loss per dataset",
			},
			[]string{"dataset"},
		),

		PopulationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "symreg_population_duration_seconds",
				Help:    "Time to score a whole population",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordEvaluation records one loss evaluation. mode is "full" or "batched".
func (m *FitnessMetrics) RecordEvaluation(mode string, loss float64) {
	if m == nil {
		return
	}
	if math.IsInf(loss, 0) || math.IsNaN(loss) {
		m.EvaluationsTotal.WithLabelValues(mode, "failed").Inc()
		return
	}
	m.EvaluationsTotal.WithLabelValues(mode, "ok").Inc()
	m.LossHistogram.WithLabelValues(mode).Observe(loss)
}

// RecordViolation records a dimensional-constraint penalty
func (m *FitnessMetrics) RecordViolation() {
	if m == nil {
		return
	}
	m.DimensionalViolationsTotal.Inc()
}

// RecordCacheHit records a cache hit
func (m *FitnessMetrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func (m *FitnessMetrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

// RecordBaseline records the calibrated baseline of a dataset
func (m *FitnessMetrics) RecordBaseline(datasetID string, loss float64) {
	if m == nil {
		return
	}
	m.BaselineLoss.WithLabelValues(datasetID).Set(loss)
}

// RecordPopulation records how long a population took to score
func (m *FitnessMetrics) RecordPopulation(duration time.Duration) {
	if m == nil {
		return
	}
	m.PopulationDuration.Observe(duration.Seconds())
}
