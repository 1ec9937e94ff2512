package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/safety"
)

// Service is the query entry point: it gates input, runs the session under
// its deadline, and gates the answer before release.
type Service struct {
	gate    *safety.Gate
	exec    *Executor
	cfg     Config
	logger  *logging.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewService assembles the service.
func NewService(gate *safety.Gate, exec *Executor, cfg Config, logger *logging.Logger, metrics *Metrics) *Service {
	return &Service{
		gate:    gate,
		exec:    exec,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// HandleQuery answers one query end to end. The returned result always has
// a terminal status; errors are reserved for invariant breakage, not for
// blocked or failed sessions.
func (s *Service) HandleQuery(ctx context.Context, query string) *Result {
	start := time.Now()
	sess := conversation.NewSession(query)
	ctx = logging.WithSessionID(ctx, sess.ID)

	ctx, span := s.tracer.Start(ctx, "session.handle_query")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sess.ID))

	s.logger.Info(ctx, "query received",
		zap.String("session_id", sess.ID),
		logging.Preview("query", query, 100))

	// Input gate. A blocked query never reaches a role.
	decision := s.gate.CheckInput(ctx, sess.ID, query)
	if decision.Blocked {
		sess.Status = conversation.StatusSafetyBlocked
		s.metrics.RecordBlocked(ctx, string(safety.SideInput))
		return s.result(ctx, sess, decision.Text, "query blocked by safety checks",
			decision.Verdict.Violations, start)
	}
	// The sanitize strategy may have redacted the query.
	sess.Query = decision.Text
	violations := decision.Verdict.Violations

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	s.run(runCtx, sess)

	if sess.Status != conversation.StatusDone {
		return s.result(ctx, sess, "", failureMessage(sess), violations, start)
	}

	// Output gate. Evidence gathered by tools feeds the consistency check.
	decision = s.gate.CheckOutput(ctx, sess.ID, sess.FinalAnswer, sess.Evidence())
	violations = append(violations, decision.Verdict.Violations...)
	if decision.Blocked {
		sess.Status = conversation.StatusSafetyBlocked
		s.metrics.RecordBlocked(ctx, string(safety.SideOutput))
		return s.result(ctx, sess, decision.Text, "answer blocked by safety checks",
			violations, start)
	}
	// Sanitized but releasable answers stay done.
	sess.FinalAnswer = decision.Text

	return s.result(ctx, sess, sess.FinalAnswer, "", violations, start)
}

// run executes the session, converting panics from role implementations
// into an errored session instead of taking down the server.
func (s *Service) run(ctx context.Context, sess *conversation.Session) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "session panicked",
				zap.String("session_id", sess.ID),
				zap.Any("panic", r))
			if !sess.Status.Terminal() {
				sess.Status = conversation.StatusErrored
			}
		}
	}()
	s.exec.Run(ctx, sess)
}

// result assembles the externally visible outcome and records metrics.
func (s *Service) result(ctx context.Context, sess *conversation.Session, answer, message string, violations []safety.Violation, start time.Time) *Result {
	elapsed := time.Since(start)
	s.metrics.RecordSession(ctx, sess.Status, sess.Rounds, elapsed)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("status", string(sess.Status)),
		attribute.Int("rounds", sess.Rounds),
	)
	return &Result{
		SessionID:  sess.ID,
		Query:      sess.Query,
		Status:     sess.Status,
		Answer:     answer,
		Message:    message,
		Turns:      sess.Turns,
		Rounds:     sess.Rounds,
		Violations: violations,
		Elapsed:    elapsed,
	}
}

// failureMessage describes a non-done terminal status for the caller.
func failureMessage(sess *conversation.Session) string {
	switch sess.Status {
	case conversation.StatusTimedOut:
		return "session timed out before an answer was approved"
	case conversation.StatusRoundLimitExceeded:
		return fmt.Sprintf("no approved answer within %d rounds", sess.Rounds)
	case conversation.StatusErrored:
		return "session failed during execution"
	default:
		return fmt.Sprintf("session ended with status %s", sess.Status)
	}
}
