// Package runner orchestrates one evaluation cycle: fetch a snapshot from a
// provider, build the resource graph and lock index, run a filter, and gate
// the actions a policy intends. It owns the wiring of telemetry and the
// audit store; the core packages stay free of I/O.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lockwarden/lockwarden/pkg/engine"
	"github.com/lockwarden/lockwarden/pkg/gate"
	"github.com/lockwarden/lockwarden/pkg/policy"
	"github.com/lockwarden/lockwarden/pkg/providers"
	"github.com/lockwarden/lockwarden/pkg/stores"
	"github.com/lockwarden/lockwarden/pkg/telemetry"
)

// Runner executes evaluation cycles against a provider registry.
type Runner struct {
	registry  *providers.Registry
	evaluator *policy.Evaluator
	gate      *gate.Gate
	store     stores.Store
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	logger    zerolog.Logger
}

// Options configures a Runner. Store may be nil to disable persistence;
// Metrics and Tracer may be nil for no-op telemetry.
type Options struct {
	Registry  *providers.Registry
	Evaluator *policy.Evaluator
	Gate      *gate.Gate
	Store     stores.Store
	Metrics   *telemetry.Metrics
	Tracer    *telemetry.Tracer
	Logger    zerolog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Registry == nil {
		opts.Registry = providers.Default
	}
	if opts.Evaluator == nil {
		opts.Evaluator = policy.NewEvaluator(opts.Logger)
	}
	if opts.Gate == nil {
		opts.Gate = gate.New(opts.Logger)
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}

	return &Runner{
		registry:  opts.Registry,
		evaluator: opts.Evaluator,
		gate:      opts.Gate,
		store:     opts.Store,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		logger:    opts.Logger.With().Str("component", "runner").Logger(),
	}
}

// Cycle is the outcome of one evaluation cycle. Graph and Index are shared
// read-only structures; callers may gate any number of actions against them
// concurrently.
type Cycle struct {
	ID     string
	Graph  *engine.ResourceGraph
	Index  *engine.LockIndex
	Result *policy.Result
}

// Evaluate runs one full evaluation cycle: snapshot, graph, index, filter.
func (r *Runner) Evaluate(ctx context.Context, providerName string, providerConfig map[string]string, filterName string) (*Cycle, error) {
	cycleID := uuid.NewString()
	startedAt := time.Now().UTC()

	ctx, endSpan := r.startSpan(ctx, "runner.evaluate",
		attribute.String("provider", providerName),
		attribute.String("filter", filterName),
		attribute.String("cycle_id", cycleID),
	)
	defer endSpan()

	cycle := &stores.EvaluationCycle{
		ID:        cycleID,
		Provider:  providerName,
		Filter:    filterName,
		StartedAt: startedAt,
	}
	if r.store != nil {
		if err := r.store.CreateCycle(ctx, cycle); err != nil {
			return nil, err
		}
	}

	out, err := r.evaluate(ctx, providerName, providerConfig, filterName)
	r.finishCycle(ctx, cycle, out, err)
	if err != nil {
		return nil, err
	}

	out.ID = cycleID
	return out, nil
}

// evaluate performs the cycle without persistence bookkeeping.
func (r *Runner) evaluate(ctx context.Context, providerName string, providerConfig map[string]string, filterName string) (*Cycle, error) {
	source, err := r.registry.Get(ctx, providerName, providerConfig)
	if err != nil {
		return nil, err
	}

	snap, err := source.Snapshot(ctx)
	if err != nil {
		return nil, engine.NewPermanentError("snapshot fetch failed", err).
			WithCode(engine.ErrCodeProviderFailed).
			WithOperation("snapshot")
	}

	g, err := engine.BuildGraph(snap.Resources, snap.Edges)
	if err != nil {
		r.metrics.RecordGraphBuild(0, 0, err)
		return nil, err
	}

	idx, err := engine.DeriveLockIndex(g)
	if err != nil {
		r.metrics.RecordGraphBuild(0, 0, err)
		return nil, err
	}
	r.metrics.RecordGraphBuild(g.Len(), len(idx.LockedResources()), nil)

	result, err := r.evaluator.Evaluate(ctx, g, idx, filterName)
	if err != nil {
		r.metrics.RecordEvaluation(filterName, 0, 0, err)
		return nil, err
	}
	r.metrics.RecordEvaluation(filterName, len(result.Matched), result.Duration, nil)

	r.logger.Info().
		Str("provider", providerName).
		Str("filter", filterName).
		Int("resources", g.Len()).
		Int("matched", len(result.Matched)).
		Msg("Evaluation cycle completed")

	return &Cycle{Graph: g, Index: idx, Result: result}, nil
}

// finishCycle records the cycle outcome in the audit store.
func (r *Runner) finishCycle(ctx context.Context, cycle *stores.EvaluationCycle, out *Cycle, evalErr error) {
	if r.store == nil {
		return
	}

	now := time.Now().UTC()
	cycle.CompletedAt = &now
	if evalErr != nil {
		msg := evalErr.Error()
		cycle.Error = &msg
	} else {
		cycle.ResourceCount = out.Graph.Len()
		cycle.EdgeCount = len(out.Graph.Edges())
		cycle.LockedCount = len(out.Index.LockedResources())
		cycle.MatchedCount = len(out.Result.Matched)
	}

	if err := r.store.CompleteCycle(ctx, cycle); err != nil {
		r.logger.Warn().Err(err).Str("cycle", cycle.ID).Msg("Failed to record cycle completion")
	}
}

// Authorize gates one action against a cycle's lock index and records the
// decision.
func (r *Runner) Authorize(ctx context.Context, cycle *Cycle, resourceID string, action engine.Action) (gate.Decision, error) {
	d, err := r.gate.Authorize(resourceID, action, cycle.Index)
	if err != nil {
		return d, err
	}
	r.metrics.RecordDecision(string(action), d.Allowed)

	if r.store != nil && cycle.ID != "" {
		record := &stores.DecisionRecord{
			CycleID:   cycle.ID,
			Resource:  d.Resource,
			Action:    string(d.Action),
			Allowed:   d.Allowed,
			Reason:    d.Reason,
			Level:     d.Level.String(),
			DecidedAt: time.Now().UTC(),
		}
		if err := r.store.RecordDecision(ctx, record); err != nil {
			r.logger.Warn().Err(err).Str("cycle", cycle.ID).Msg("Failed to record decision")
		}
	}

	return d, nil
}

// startSpan begins a tracing span when a tracer is configured and returns a
// closure ending it.
func (r *Runner) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if r.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := r.tracer.StartSpan(ctx, name, attrs...)
	return ctx, func() { span.End() }
}
