package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lockwarden/lockwarden/pkg/config"
	"github.com/lockwarden/lockwarden/pkg/gate"
	"github.com/lockwarden/lockwarden/pkg/policy"
	"github.com/lockwarden/lockwarden/pkg/providers"
	"github.com/lockwarden/lockwarden/pkg/runner"
	"github.com/lockwarden/lockwarden/pkg/stores"
	"github.com/lockwarden/lockwarden/pkg/telemetry"
)

// loadConfig loads the config file named by --config, or defaults.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildLogger creates the logger from config, honoring --verbose.
func buildLogger(cfg *config.Config) (zerolog.Logger, error) {
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return telemetry.NewLogger(logCfg)
}

// buildRunner assembles the evaluation runner from configuration: telemetry,
// optional audit store, and an evaluator with all configured policies loaded.
// The returned cleanup releases the store.
func buildRunner(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runner.Runner, func(), error) {
	cleanup := func() {}

	metrics := telemetry.NewMetrics(cfg.Telemetry.Metrics)

	tracer, err := telemetry.NewTracer(
		cfg.Telemetry.Tracing,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.ServiceVersion,
		cfg.Telemetry.Environment,
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create tracer: %w", err)
	}

	var store stores.Store
	if cfg.Store.Path != "" {
		sqlStore, err := stores.NewSQLiteStore(stores.Config{Path: cfg.Store.Path})
		if err != nil {
			return nil, cleanup, err
		}
		if err := sqlStore.Init(ctx); err != nil {
			return nil, cleanup, err
		}
		if err := sqlStore.Migrate(ctx); err != nil {
			_ = sqlStore.Close()
			return nil, cleanup, err
		}
		store = sqlStore
		cleanup = func() { _ = sqlStore.Close() }
	}

	evaluator, err := buildEvaluator(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	r := runner.New(runner.Options{
		Registry:  providers.Default,
		Evaluator: evaluator,
		Gate:      gate.New(logger),
		Store:     store,
		Metrics:   metrics,
		Tracer:    tracer,
		Logger:    logger,
	})
	return r, cleanup, nil
}

// buildEvaluator creates the filter evaluator and registers Rego filters
// from the configured policy paths.
func buildEvaluator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*policy.Evaluator, error) {
	evaluator := policy.NewEvaluator(logger)

	if len(cfg.PolicyPaths) > 0 {
		loader := policy.NewLoader(logger)
		policies, err := loader.LoadFromPaths(ctx, cfg.PolicyPaths)
		if err != nil {
			return nil, err
		}
		if err := evaluator.RegisterRegoPolicies(ctx, policies); err != nil {
			return nil, err
		}
	}

	return evaluator, nil
}
