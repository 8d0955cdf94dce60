package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps both slog and zap loggers
type Logger struct {
	slog *slog.Logger
	zap  *zap.Logger
}

// Config holds logging configuration
type Config struct {
	Level     string
	Format    string // "json" or "console"
	Output    string // "stdout" or "stderr"
	AddCaller bool
	AddStack  bool
}

// DefaultConfig returns an info-level JSON configuration on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: "stderr"}
}

// NewLogger creates a new structured logger
func NewLogger(config Config) (*Logger, error) {
	out := io.Writer(os.Stdout)
	if config.Output == "stderr" {
		out = os.Stderr
	}
	slogLogger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseSlogLevel(config.Level),
	}))

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = parseZapLevel(config.Level)
	if config.Format != "" {
		zapConfig.Encoding = config.Format
	}
	if config.Output != "" {
		zapConfig.OutputPaths = []string{config.Output}
		zapConfig.ErrorOutputPaths = []string{config.Output}
	}
	zapConfig.DisableCaller = !config.AddCaller
	zapConfig.DisableStacktrace = !config.AddStack

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		slog: slogLogger,
		zap:  zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{
		slog: slog.New(slog.NewTextHandler(io.Discard, nil)),
		zap:  zap.NewNop(),
	}
}

// New builds a logger from existing backends, mainly for tests.
func New(s *slog.Logger, z *zap.Logger) *Logger {
	return &Logger{slog: s, zap: z}
}

// parseSlogLevel parses slog level from string
func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseZapLevel parses zap level from string
func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// WithRunID tags every entry with the search run identifier
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		slog: l.slog.With("run_id", runID),
		zap:  l.zap.With(zap.String("run_id", runID)),
	}
}

// WithFields adds fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	slogAttrs := make([]any, 0, len(fields)*2)
	zapFields := make([]zap.Field, 0, len(fields))

	for key, value := range fields {
		slogAttrs = append(slogAttrs, key, value)
		zapFields = append(zapFields, zap.Any(key, value))
	}

	return &Logger{
		slog: l.slog.With(slogAttrs...),
		zap:  l.zap.With(zapFields...),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.slog.Debug(msg, args...)
	l.zap.Debug(msg, convertToZapFields(args)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.slog.Info(msg, args...)
	l.zap.Info(msg, convertToZapFields(args)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.slog.Warn(msg, args...)
	l.zap.Warn(msg, convertToZapFields(args)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.slog.Error(msg, args...)
	l.zap.Error(msg, convertToZapFields(args)...)
}

// convertToZapFields converts interface{} args to zap.Field
func convertToZapFields(args []interface{}) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields = append(fields, zap.Any(key, args[i+1]))
		}
	}
	return fields
}

// LogEvaluationFailure logs a candidate whose loss came out infinite
func (l *Logger) LogEvaluationFailure(expression, index string) {
	l.Debug("candidate evaluation failed",
		"expression", expression,
		"index", index,
	)
}

// LogCalibration logs the outcome of baseline calibration
func (l *Logger) LogCalibration(datasetID string, baselineLoss float64, useBaseline bool, duration time.Duration) {
	fields := map[string]interface{}{
		"dataset_id":    datasetID,
		"baseline_loss": baselineLoss,
		"use_baseline":  useBaseline,
		"duration_ms":   float64(duration.Nanoseconds()) / 1e6,
	}

	logger := l.WithFields(fields)
	if useBaseline {
		logger.Info("Baseline calibrated")
	} else {
		logger.Warn("Baseline expression did not evaluate, normalization disabled")
	}
}

// LogPopulation logs a finished population scoring pass
func (l *Logger) LogPopulation(datasetID string, size, failed int, bestScore float64, duration time.Duration) {
	fields := map[string]interface{}{
		"dataset_id":  datasetID,
		"size":        size,
		"failed":      failed,
		"best_score":  bestScore,
		"duration_ms": float64(duration.Nanoseconds()) / 1e6,
	}

	logger := l.WithFields(fields)
	logger.Info("Population scored")
}

// Sync syncs the logger
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
