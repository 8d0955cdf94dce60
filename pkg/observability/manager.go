package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snow-ghost/symreg/pkg/logging"
	"github.com/snow-ghost/symreg/pkg/metrics"
	"github.com/snow-ghost/symreg/pkg/tracing"
)

// Manager manages all observability components
type Manager struct {
	registry *prometheus.Registry
	metrics  *metrics.FitnessMetrics
	tracer   *tracing.Tracer
	logger   *logging.Logger
}

// Config holds observability configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	JaegerEndpoint string // empty disables export
	LogLevel       string
	LogFormat      string
	LogOutput      string
}

// NewManager creates a new observability manager. Metrics go to a private
// registry so several managers can coexist in one process.
func NewManager(config Config) (*Manager, error) {
	// Create logger
	logger, err := logging.NewLogger(logging.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
		Output: config.LogOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Create tracer
	tracer := tracing.NewNoopTracer()
	if config.JaegerEndpoint != "" {
		tracer, err = tracing.NewTracer(tracing.Config{
			ServiceName:    config.ServiceName,
			ServiceVersion: config.ServiceVersion,
			JaegerEndpoint: config.JaegerEndpoint,
			Environment:    config.Environment,
		})
		if err != nil {
			return nil, err
		}
	}

	// Create metrics
	registry := prometheus.NewRegistry()

	return &Manager{
		registry: registry,
		metrics:  metrics.NewFitnessMetrics(registry),
		tracer:   tracer,
		logger:   logger.WithFields(map[string]interface{}{"service": config.ServiceName}),
	}, nil
}

// GetMetrics returns the metrics instance
func (m *Manager) GetMetrics() *metrics.FitnessMetrics {
	return m.metrics
}

// GetRegistry returns the registry the metrics are registered with
func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// GetTracer returns the tracer instance
func (m *Manager) GetTracer() *tracing.Tracer {
	return m.tracer
}

// GetLogger returns the logger instance
func (m *Manager) GetLogger() *logging.Logger {
	return m.logger
}

// Shutdown flushes the tracer and the logger.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if err := m.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer: %w", err))
	}
	// zap reports EINVAL when syncing a terminal; not worth surfacing
	_ = m.logger.Sync()
	return errors.Join(errs...)
}
