package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/snow-ghost/symreg"

// Tracer wraps OpenTelemetry tracer
type Tracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Config holds tracing configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	JaegerEndpoint string
	Environment    string
}

// NewTracer creates a new OpenTelemetry tracer exporting to Jaeger
func NewTracer(config Config) (*Tracer, error) {
	// Create Jaeger exporter
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	// Create resource
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create trace provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		tracer:   tp.Tracer(config.ServiceName),
		shutdown: tp.Shutdown,
	}, nil
}

// NewTracerFromProvider wraps an existing provider, e.g. a test recorder
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(instrumentationName)}
}

// NewNoopTracer returns a tracer that records nothing
func NewNoopTracer() *Tracer {
	return NewTracerFromProvider(noop.NewTracerProvider())
}

// StartSpan starts a new span
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartCalibrationSpan starts a span for baseline calibration
func (t *Tracer) StartCalibrationSpan(ctx context.Context, datasetID string, samples int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("dataset.id", datasetID),
		attribute.Int("dataset.samples", samples),
	}

	return t.tracer.Start(ctx, "fitness.calibrate", trace.WithAttributes(attrs...))
}

// StartPopulationSpan starts a span for scoring a population
func (t *Tracer) StartPopulationSpan(ctx context.Context, datasetID string, size int, batching bool) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("dataset.id", datasetID),
		attribute.Int("population.size", size),
		attribute.Bool("population.batching", batching),
	}

	return t.tracer.Start(ctx, "fitness.score_population", trace.WithAttributes(attrs...))
}

// RecordSpanError records an error in a span
func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSpanSuccess records success in a span
func RecordSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "success")
}

// RecordSpanDuration records duration in a span
func RecordSpanDuration(span trace.Span, duration time.Duration) {
	span.SetAttributes(attribute.Float64("duration_ms", float64(duration.Nanoseconds())/1e6))
}

// RecordSpanScore records the best score and failure count of a population
func RecordSpanScore(span trace.Span, bestScore float64, failed int) {
	span.SetAttributes(
		attribute.Float64("population.best_score", bestScore),
		attribute.Int("population.failed", failed),
	)
}

// Shutdown flushes and stops the exporter, if the tracer owns one
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// GetTraceID extracts trace ID from context
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
