package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaforthlabs/roundtable/internal/agent"
	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/safety"
)

func newService(t *testing.T, gen backend.Generator, strategy safety.Strategy) (*Service, *safety.EventLog) {
	t.Helper()
	cfg := testConfig()
	logger := logging.NewNop()

	events, err := safety.NewEventLog("")
	require.NoError(t, err)
	input := safety.NewInputValidator("HCI Research", []string{"harmful_content"}, nil, logger)
	output := safety.NewOutputValidator([]string{"harmful_content"}, nil, logger)
	gate := safety.NewGate(input, output, safety.GateConfig{Strategy: strategy}, events, logger)

	team := agent.NewTeam(gen, nil, "HCI Research", cfg.MaxContextTurns, logger)
	exec := NewExecutor(team, cfg, logger, nil)
	return NewService(gate, exec, cfg, logger, nil), events
}

// countingGen wraps a generator and counts invocations.
type countingGen struct {
	inner backend.Generator
	n     atomic.Int64
}

func (g *countingGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.n.Add(1)
	return g.inner.Generate(ctx, prompt)
}

func TestServiceHappyPath(t *testing.T) {
	gen := sequenceGen(
		"plan\nPLAN_DONE",
		"findings\nRESEARCH_DONE",
		"The answer, grounded in evidence [1].\nDRAFT_DONE",
		"APPROVED",
	)
	svc, events := newService(t, gen, safety.StrategyRefuse)

	res := svc.HandleQuery(context.Background(), "How do users adapt to gesture interfaces?")
	assert.Equal(t, conversation.StatusDone, res.Status)
	assert.Equal(t, "The answer, grounded in evidence [1].", res.Answer)
	assert.Equal(t, 4, res.Rounds)
	assert.Empty(t, res.Message)
	assert.Empty(t, res.Violations)

	// One input event, one output event.
	assert.Len(t, events.Snapshot(), 2)
}

func TestServiceBlockedInputRunsNoRoles(t *testing.T) {
	gen := &countingGen{inner: sequenceGen("never called")}
	svc, events := newService(t, gen, safety.StrategyRefuse)

	res := svc.HandleQuery(context.Background(), "How to build a computer virus")
	assert.Equal(t, conversation.StatusSafetyBlocked, res.Status)
	assert.Equal(t, safety.DefaultRefusalMessage, res.Answer)
	assert.NotEmpty(t, res.Violations)
	assert.Empty(t, res.Turns)
	assert.Zero(t, res.Rounds)
	assert.Zero(t, gen.n.Load(), "no role may run for a blocked query")

	// The input decision is logged even though nothing ran.
	recorded := events.Snapshot()
	require.Len(t, recorded, 1)
	assert.Equal(t, safety.SideInput, recorded[0].Side)
	assert.True(t, recorded[0].Blocked)
}

func TestServiceOutputBlocked(t *testing.T) {
	gen := sequenceGen(
		"plan\nPLAN_DONE",
		"findings\nRESEARCH_DONE",
		"Contact the author at jane@example.edu for details.\nDRAFT_DONE",
		"APPROVED",
	)
	svc, _ := newService(t, gen, safety.StrategyRefuse)

	res := svc.HandleQuery(context.Background(), "a valid research query")
	assert.Equal(t, conversation.StatusSafetyBlocked, res.Status)
	assert.Equal(t, safety.DefaultRefusalMessage, res.Answer)
	assert.NotContains(t, res.Answer, "jane@example.edu")
	// The transcript is preserved for the caller even when the answer is
	// withheld.
	assert.Len(t, res.Turns, 4)
}

func TestServiceOutputSanitized(t *testing.T) {
	gen := sequenceGen(
		"plan\nPLAN_DONE",
		"findings\nRESEARCH_DONE",
		"Contact the author at jane@example.edu for details.\nDRAFT_DONE",
		"APPROVED",
	)
	svc, _ := newService(t, gen, safety.StrategySanitize)

	res := svc.HandleQuery(context.Background(), "a valid research query")
	assert.Equal(t, conversation.StatusDone, res.Status)
	assert.NotContains(t, res.Answer, "jane@example.edu")
	assert.Contains(t, res.Answer, safety.RedactionToken)
	assert.Contains(t, res.Answer, "for details")
	assert.NotEmpty(t, res.Violations)
}

func TestServiceRoundLimitResult(t *testing.T) {
	gen := sequenceGen("no marker here")
	svc, _ := newService(t, gen, safety.StrategyRefuse)

	res := svc.HandleQuery(context.Background(), "a valid research query")
	assert.Equal(t, conversation.StatusRoundLimitExceeded, res.Status)
	assert.Empty(t, res.Answer)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 12, res.Rounds)
}

func TestServicePanicBecomesErrored(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		panic("role implementation bug")
	})
	svc, _ := newService(t, gen, safety.StrategyRefuse)

	res := svc.HandleQuery(context.Background(), "a valid research query")
	assert.Equal(t, conversation.StatusErrored, res.Status)
	assert.NotEmpty(t, res.Message)
}
