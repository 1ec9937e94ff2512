package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/tools"
)

// scriptedGen returns canned responses in order.
type scriptedGen struct {
	responses []string
	calls     []string
	err       error
}

func (g *scriptedGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls = append(g.calls, prompt)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.calls) - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

// fakeTool returns a fixed result or error.
type fakeTool struct {
	name   string
	result string
	err    error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool" }
func (f *fakeTool) Call(ctx context.Context, input string) (string, error) {
	return f.result, f.err
}

func TestPlannerProduce(t *testing.T) {
	gen := &scriptedGen{responses: []string{"1. Define terms\n2. Find studies\nPLAN_DONE"}}
	p := &Planner{gen: gen, topic: "HCI Research", maxTurns: 20}

	sess := conversation.NewSession("How do users adapt to gesture interfaces?")
	turn, err := p.Produce(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, conversation.RolePlanner, turn.Role)
	assert.Contains(t, turn.Content, "PLAN_DONE")
	assert.Contains(t, gen.calls[0], "How do users adapt to gesture interfaces?")
	assert.Contains(t, gen.calls[0], "HCI Research")
}

func TestPlannerGeneratorError(t *testing.T) {
	gen := &scriptedGen{err: errors.New("backend down")}
	p := &Planner{gen: gen, topic: "HCI Research", maxTurns: 20}

	_, err := p.Produce(context.Background(), conversation.NewSession("a valid query"))
	assert.Error(t, err)
}

func TestResearcherRunsTools(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&fakeTool{name: "web_search", result: "1. Result about gestures"})

	gen := &scriptedGen{responses: []string{
		"gesture interface learning",
		"Evidence summary citing [1].\nRESEARCH_DONE",
	}}
	r := &Researcher{gen: gen, registry: registry, topic: "HCI Research", maxTurns: 20, logger: logging.NewNop()}

	sess := conversation.NewSession("How do users adapt to gesture interfaces?")
	sess.Append(conversation.Turn{Role: conversation.RolePlanner, Content: "1. Search for studies\nPLAN_DONE"})

	turn, err := r.Produce(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleResearcher, turn.Role)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "web_search", turn.ToolCalls[0].Name)
	assert.Equal(t, "gesture interface learning", turn.ToolCalls[0].Input)
	assert.Equal(t, "1. Result about gestures", turn.ToolCalls[0].Result)
	assert.Empty(t, turn.ToolCalls[0].Error)

	// Tool results flow into the summarization prompt.
	assert.Contains(t, gen.calls[1], "Result about gestures")
}

func TestResearcherToolFailureDegrades(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&fakeTool{name: "web_search", err: errors.New("network unreachable")})

	gen := &scriptedGen{responses: []string{
		"some query",
		"No usable evidence was found.\nRESEARCH_DONE",
	}}
	r := &Researcher{gen: gen, registry: registry, topic: "HCI Research", maxTurns: 20, logger: logging.NewNop()}

	sess := conversation.NewSession("a valid research query")
	turn, err := r.Produce(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Contains(t, turn.ToolCalls[0].Error, "network unreachable")
	assert.Empty(t, turn.ToolCalls[0].Result)
}

func TestResearcherNoRegistry(t *testing.T) {
	gen := &scriptedGen{responses: []string{"Nothing to report.\nRESEARCH_DONE"}}
	r := &Researcher{gen: gen, topic: "HCI Research", maxTurns: 20, logger: logging.NewNop()}

	sess := conversation.NewSession("a valid research query")
	turn, err := r.Produce(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, turn.ToolCalls)
	assert.Contains(t, gen.calls[0], "(no tools available)")
}

func TestResearcherQueryFallback(t *testing.T) {
	registry := tools.NewRegistry()
	tool := &fakeTool{name: "web_search", result: "results"}
	registry.Register(tool)

	// No planner turn yet: the raw query is used without an extraction call.
	gen := &scriptedGen{responses: []string{"summary\nRESEARCH_DONE"}}
	r := &Researcher{gen: gen, registry: registry, topic: "HCI Research", maxTurns: 20, logger: logging.NewNop()}

	sess := conversation.NewSession("a valid research query")
	turn, err := r.Produce(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "a valid research query", turn.ToolCalls[0].Input)
}

func TestWriterSeesConversation(t *testing.T) {
	gen := &scriptedGen{responses: []string{"The answer, citing [1].\nDRAFT_DONE"}}
	w := &Writer{gen: gen, topic: "HCI Research", maxTurns: 20}

	sess := conversation.NewSession("a valid research query")
	sess.Append(conversation.Turn{Role: conversation.RolePlanner, Content: "plan\nPLAN_DONE"})
	sess.Append(conversation.Turn{Role: conversation.RoleResearcher, Content: "findings\nRESEARCH_DONE"})

	turn, err := w.Produce(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleWriter, turn.Role)
	assert.Contains(t, gen.calls[0], "findings")
	assert.Contains(t, gen.calls[0], "[planner]")
}

func TestCriticProduce(t *testing.T) {
	gen := &scriptedGen{responses: []string{"Well supported and complete.\nAPPROVED"}}
	c := &Critic{gen: gen, topic: "HCI Research", maxTurns: 20}

	sess := conversation.NewSession("a valid research query")
	sess.Append(conversation.Turn{Role: conversation.RoleWriter, Content: "draft\nDRAFT_DONE"})

	turn, err := c.Produce(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleCritic, turn.Role)

	sig, found, err := conversation.DetectSignal(turn.Role, turn.Content)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, conversation.SignalApproved, sig)
}

func TestTeamLookup(t *testing.T) {
	gen := &scriptedGen{responses: []string{"x"}}
	team := NewTeam(gen, nil, "HCI Research", 20, logging.NewNop())

	for _, name := range []conversation.RoleName{
		conversation.RolePlanner,
		conversation.RoleResearcher,
		conversation.RoleWriter,
		conversation.RoleCritic,
	} {
		role, ok := team.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, role.Name())
	}
	_, ok := team.Get("narrator")
	assert.False(t, ok)
}

func TestTranscriptBounded(t *testing.T) {
	sess := conversation.NewSession("a valid research query")
	for i := 0; i < 30; i++ {
		sess.Append(conversation.Turn{Role: conversation.RoleWriter, Content: strings.Repeat("x", 10)})
	}
	rendered := transcript(sess, 5)
	assert.Equal(t, 5, strings.Count(rendered, "[writer]"))
}

func TestTranscriptEmpty(t *testing.T) {
	sess := conversation.NewSession("a valid research query")
	assert.Equal(t, "(no turns yet)", transcript(sess, 20))
}
