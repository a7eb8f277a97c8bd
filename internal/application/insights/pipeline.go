// Package insights runs the five analysis pipelines. Each pipeline is the
// same skeleton (aggregate, derive, advise or fall back, assemble)
// parameterized by a Strategy.
package insights

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultAdvisoryTimeout bounds the single advisory attempt.
const DefaultAdvisoryTimeout = 20 * time.Second

// Strategy supplies the per-analysis pieces of a pipeline: F is the derived
// feature set, A the advisory payload schema and R the assembled report.
type Strategy[F, A, R any] interface {
	Kind() insight.Kind
	Bounds() Bounds
	Scope() Scope
	// Derive computes deterministic features. Errors are data-integrity
	// failures and abort the run.
	Derive(snap *Snapshot) (F, error)
	// Summarize renders the compact text summary sent with the request.
	Summarize(snap *Snapshot, f F) string
	// Fallback builds the payload without the advisory service.
	Fallback(snap *Snapshot, f F) A
	// Reconcile repairs an advisory payload against the features.
	Reconcile(snap *Snapshot, f F, advice A) A
	// Assemble merges features and advice into the report. It performs no I/O.
	Assemble(snap *Snapshot, f F, advice A, meta insight.Meta) (R, error)
}

// Planner is implemented by strategies with a stage between advice and
// assembly, such as budget allocation followed by price lookups. Plan may
// block on I/O; failures inside it degrade the plan instead of failing it.
type Planner[F, A any] interface {
	Plan(ctx context.Context, snap *Snapshot, f F, advice A) A
}

// Engine carries the collaborators shared by every pipeline run. It holds no
// per-request state.
type Engine struct {
	aggregator *Aggregator
	advisory   outbound.AdvisoryService
	timeout    time.Duration
	metrics    *monitoring.MetricsCollector
	tracer     trace.Tracer
	logger     *zap.Logger
	clock      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithAdvisoryTimeout sets the timeout of the single advisory attempt.
func WithAdvisoryTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *monitoring.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer for stage spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine creates an engine. advisory may be nil, in which case every run
// uses the fallback path.
func NewEngine(aggregator *Aggregator, advisory outbound.AdvisoryService, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		aggregator: aggregator,
		advisory:   advisory,
		timeout:    DefaultAdvisoryTimeout,
		tracer:     otel.Tracer("pantry/insights"),
		logger:     logger.Named("pipeline"),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one pipeline for userID. Only aggregation and derivation
// errors are returned; advisory failures are absorbed by the fallback.
func Run[F, A, R any](ctx context.Context, e *Engine, s Strategy[F, A, R], userID uuid.UUID, windowDays int) (R, error) {
	var zero R
	kind := s.Kind()
	started := time.Now()
	now := e.clock()

	ctx, span := e.tracer.Start(ctx, "pipeline."+string(kind),
		trace.WithAttributes(
			attribute.String("pantry.kind", string(kind)),
			attribute.String("pantry.user_id", userID.String()),
		))
	defer span.End()

	window := s.Bounds().Clamp(windowDays)
	span.SetAttributes(attribute.Int("pantry.window_days", window))

	snap, err := e.aggregator.Load(ctx, userID, window, s.Scope(), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return zero, err
	}

	_, deriveSpan := e.tracer.Start(ctx, "pipeline.derive")
	features, err := s.Derive(snap)
	deriveSpan.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "derive failed")
		return zero, err
	}

	advice, source := advise(ctx, e, s, snap, features)
	span.SetAttributes(attribute.String("pantry.source", string(source)))

	meta := insight.Meta{
		Kind:        kind,
		UserID:      userID,
		WindowDays:  window,
		Source:      source,
		GeneratedAt: now,
	}
	if p, ok := any(s).(Planner[F, A]); ok {
		planCtx, planSpan := e.tracer.Start(ctx, "pipeline.plan")
		advice = p.Plan(planCtx, snap, features, advice)
		planSpan.End()
	}

	report, err := s.Assemble(snap, features, advice, meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assemble failed")
		return zero, err
	}

	elapsed := time.Since(started)
	e.metrics.PipelineRun(string(kind), string(source), elapsed)
	e.logger.Info("Pipeline completed",
		zap.String("kind", string(kind)),
		zap.String("user_id", userID.String()),
		zap.String("source", string(source)),
		zap.Int("window_days", window),
		zap.Duration("duration", elapsed),
	)
	return report, nil
}

// advise makes one advisory attempt under the engine timeout and falls back on
// any failure. It never retries.
func advise[F, A, R any](ctx context.Context, e *Engine, s Strategy[F, A, R], snap *Snapshot, f F) (A, insight.Source) {
	kind := s.Kind()
	if e.advisory == nil {
		return s.Fallback(snap, f), insight.SourceFallback
	}

	ctx, span := e.tracer.Start(ctx, "pipeline.advise",
		trace.WithAttributes(attribute.String("pantry.provider", e.advisory.Name())))
	defer span.End()

	req := outbound.AdvisoryRequest{
		Kind:         kind,
		Profile:      snap.Profile,
		Features:     f,
		Summary:      s.Summarize(snap, f),
		RequiredKeys: insight.RequiredKeys(kind),
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.advisory.Advise(callCtx, req)
	var advice A
	if err == nil {
		advice, err = decodeAdvice[A](e.advisory.Name(), kind, raw)
	}
	if err != nil {
		reason := outbound.FailureReason(err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("pantry.fallback_reason", reason))
		e.metrics.AdvisoryFailure(string(kind), reason)
		e.logger.Warn("Advisory path failed, using fallback heuristics",
			zap.String("kind", string(kind)),
			zap.String("user_id", snap.UserID.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return s.Fallback(snap, f), insight.SourceFallback
	}

	return s.Reconcile(snap, f, advice), insight.SourceAdvisory
}

func decodeAdvice[A any](provider string, kind insight.Kind, raw json.RawMessage) (A, error) {
	var advice A
	if err := insight.CheckSchema(kind, raw); err != nil {
		return advice, outbound.NewAdvisoryParseError(provider, kind, err)
	}
	if err := json.Unmarshal(raw, &advice); err != nil {
		return advice, outbound.NewAdvisoryParseError(provider, kind, err)
	}
	return advice, nil
}
