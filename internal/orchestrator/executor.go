package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/agent"
	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
)

// Executor runs the turn-taking state machine over a team of roles. It
// mutates the session in place and always leaves it in a terminal status.
type Executor struct {
	team    *agent.Team
	cfg     Config
	logger  *logging.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewExecutor builds an executor.
func NewExecutor(team *agent.Team, cfg Config, logger *logging.Logger, metrics *Metrics) *Executor {
	return &Executor{
		team:    team,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// Run advances the session until a terminal status. The caller bounds ctx
// with the session deadline; deadline expiry yields StatusTimedOut and
// preserves the turns recorded so far.
func (e *Executor) Run(ctx context.Context, sess *conversation.Session) {
	if sess.Status == conversation.StatusCreated {
		sess.Status = conversation.StatusPlanning
	}

	for !sess.Status.Terminal() {
		if err := ctx.Err(); err != nil {
			e.finish(ctx, sess, statusForContextErr(err), err.Error())
			return
		}
		if sess.Rounds >= e.cfg.MaxRounds {
			e.finish(ctx, sess, conversation.StatusRoundLimitExceeded,
				fmt.Sprintf("no approval within %d rounds", e.cfg.MaxRounds))
			return
		}

		roleName, ok := sess.Status.RoleFor()
		if !ok {
			e.finish(ctx, sess, conversation.StatusErrored,
				fmt.Sprintf("no role bound to status %s", sess.Status))
			return
		}
		role, ok := e.team.Get(roleName)
		if !ok {
			e.finish(ctx, sess, conversation.StatusErrored,
				fmt.Sprintf("role %s not registered", roleName))
			return
		}

		turn, err := e.produce(ctx, role, sess)
		sess.Rounds++
		if err != nil {
			e.finish(ctx, sess, statusForContextErr(err), err.Error())
			return
		}
		sess.Append(turn)
		e.metrics.RecordTurn(ctx, roleName)

		signal, found, err := conversation.DetectSignal(roleName, turn.Content)
		if err != nil {
			e.finish(ctx, sess, conversation.StatusErrored, err.Error())
			return
		}
		if !found {
			// The role did not hand off. It keeps the floor next round;
			// the round budget still shrinks.
			e.logger.Debug(ctx, "turn without handoff signal",
				zap.String("session_id", sess.ID),
				zap.String("role", string(roleName)))
			continue
		}

		e.advance(sess, signal)
	}

	if sess.Status == conversation.StatusDone {
		sess.FinalAnswer = sess.ExtractAnswer()
	}
	e.logger.Info(ctx, "session finished",
		zap.String("session_id", sess.ID),
		zap.String("status", string(sess.Status)),
		zap.Int("rounds", sess.Rounds),
		zap.Int("turns", len(sess.Turns)))
}

// produce runs one role invocation inside its own span.
func (e *Executor) produce(ctx context.Context, role agent.Role, sess *conversation.Session) (conversation.Turn, error) {
	ctx, span := e.tracer.Start(ctx, "session.turn")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sess.ID),
		attribute.String("role", string(role.Name())),
		attribute.Int("round", sess.Rounds),
	)

	turn, err := role.Produce(ctx, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return turn, err
}

// advance moves the session to the phase implied by a handoff signal.
func (e *Executor) advance(sess *conversation.Session, signal conversation.Signal) {
	switch signal {
	case conversation.SignalPlanDone:
		sess.Status = conversation.StatusResearching
	case conversation.SignalResearchDone:
		sess.Status = conversation.StatusWriting
	case conversation.SignalDraftDone:
		sess.Status = conversation.StatusCritiquing
	case conversation.SignalApproved:
		sess.Status = conversation.StatusDone
	case conversation.SignalNeedsRevision:
		sess.Status = conversation.StatusResearching
	}
}

// finish stamps a terminal status with logging. Done is never set here.
func (e *Executor) finish(ctx context.Context, sess *conversation.Session, status conversation.Status, reason string) {
	sess.Status = status
	e.logger.Warn(ctx, "session terminated",
		zap.String("session_id", sess.ID),
		zap.String("status", string(status)),
		zap.String("reason", reason),
		zap.Int("rounds", sess.Rounds))
}

// statusForContextErr maps an error to the terminal status it implies:
// deadline expiry is a timeout, everything else including cancellation is
// an execution error.
func statusForContextErr(err error) conversation.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return conversation.StatusTimedOut
	}
	return conversation.StatusErrored
}
