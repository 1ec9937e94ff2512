package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/conversation"
)

const instrumentationName = "github.com/seaforthlabs/roundtable/internal/orchestrator"

// Metrics holds session-level instruments. A nil *Metrics is a valid
// no-op receiver so tests and the CLI can skip instrumentation.
type Metrics struct {
	meter       metric.Meter
	logger      *zap.Logger
	sessions    metric.Int64Counter
	turns       metric.Int64Counter
	rounds      metric.Int64Histogram
	sessionDur  metric.Float64Histogram
	gateBlocked metric.Int64Counter
}

// NewMetrics creates session metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.sessions, err = m.meter.Int64Counter(
		"roundtable.sessions_total",
		metric.WithDescription("Completed sessions labeled by terminal status."),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		m.logger.Warn("failed to create sessions counter", zap.Error(err))
	}

	m.turns, err = m.meter.Int64Counter(
		"roundtable.turns_total",
		metric.WithDescription("Role turns produced, labeled by role."),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		m.logger.Warn("failed to create turns counter", zap.Error(err))
	}

	m.rounds, err = m.meter.Int64Histogram(
		"roundtable.session_rounds",
		metric.WithDescription("Rounds consumed per session."),
		metric.WithUnit("{round}"),
		metric.WithExplicitBucketBoundaries(1, 2, 4, 6, 8, 12, 16, 24),
	)
	if err != nil {
		m.logger.Warn("failed to create rounds histogram", zap.Error(err))
	}

	m.sessionDur, err = m.meter.Float64Histogram(
		"roundtable.session_duration_seconds",
		metric.WithDescription("Wall time per session in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.gateBlocked, err = m.meter.Int64Counter(
		"roundtable.safety_blocked_total",
		metric.WithDescription("Sessions blocked by the safety gate, labeled by side."),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		m.logger.Warn("failed to create gate counter", zap.Error(err))
	}
}

// RecordTurn counts one role turn.
func (m *Metrics) RecordTurn(ctx context.Context, role conversation.RoleName) {
	if m == nil || m.turns == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("role", string(role))))
}

// RecordSession counts a finished session and its cost.
func (m *Metrics) RecordSession(ctx context.Context, status conversation.Status, rounds int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	if m.sessions != nil {
		m.sessions.Add(ctx, 1, attrs)
	}
	if m.rounds != nil {
		m.rounds.Record(ctx, int64(rounds), attrs)
	}
	if m.sessionDur != nil {
		m.sessionDur.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordBlocked counts a gate refusal.
func (m *Metrics) RecordBlocked(ctx context.Context, side string) {
	if m == nil || m.gateBlocked == nil {
		return
	}
	m.gateBlocked.Add(ctx, 1, metric.WithAttributes(attribute.String("side", side)))
}
