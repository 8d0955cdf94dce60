package main

import (
	"context"
	"fmt"
	"os"

	"github.com/snow-ghost/symreg/expr"
	"github.com/snow-ghost/symreg/fitness"
	"github.com/snow-ghost/symreg/pkg/cache"
	"github.com/snow-ghost/symreg/pkg/observability"
	"github.com/snow-ghost/symreg/worker"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a command needs to score a run.
type app struct {
	obs  *observability.Manager
	pool *worker.Pool
}

func newApp(config *worker.Config) (*app, error) {
	obs, err := observability.NewManager(observability.Config{
		ServiceName:    "srfit",
		ServiceVersion: "0.1.0",
		Environment:    "cli",
		JaegerEndpoint: config.JaegerEndpoint,
		LogLevel:       config.LogLevel,
		LogFormat:      config.LogFormat,
		LogOutput:      "stderr",
	})
	if err != nil {
		return nil, err
	}

	scorerOpts := []fitness.Option{
		fitness.WithDimensions(expr.UnitChecker{}),
		fitness.WithLogger(obs.GetLogger()),
		fitness.WithMetrics(obs.GetMetrics()),
		fitness.WithTracer(obs.GetTracer()),
	}

	// SRFIT_CACHE_SIZE=0 disables the loss cache
	if config.CacheSize > 0 {
		lossCache, err := cache.NewLossCache(&cache.CacheConfig{MaxSize: config.CacheSize})
		if err != nil {
			return nil, err
		}
		scorerOpts = append(scorerOpts, fitness.WithLossCache(lossCache))
	}

	scorer := fitness.NewScorer(expr.Evaluator{}, expr.Complexity{}, expr.Constants{}, scorerOpts...)
	pool := worker.NewPool(scorer, config,
		worker.WithLogger(obs.GetLogger()),
		worker.WithMetrics(obs.GetMetrics()),
		worker.WithTracer(obs.GetTracer()),
	)

	return &app{obs: obs, pool: pool}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.obs.Shutdown(ctx); err != nil {
		a.obs.GetLogger().Warn("observability shutdown failed", "error", err)
	}
}
