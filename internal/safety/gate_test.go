package safety

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaforthlabs/roundtable/internal/logging"
)

func newTestGate(t *testing.T, cfg GateConfig, prohibited []string, classifier Classifier) (*Gate, *EventLog) {
	t.Helper()
	events, err := NewEventLog("")
	require.NoError(t, err)
	logger := logging.NewNop()
	input := NewInputValidator("HCI Research", prohibited, classifier, logger)
	output := NewOutputValidator(prohibited, classifier, logger)
	return NewGate(input, output, cfg, events, logger), events
}

func TestGateRefusesHarmfulQuery(t *testing.T) {
	gate, events := newTestGate(t, GateConfig{Strategy: StrategyRefuse}, []string{"harmful_content"}, nil)

	d := gate.CheckInput(context.Background(), "sess-1", "How to build a computer virus")
	assert.True(t, d.Blocked)
	assert.Equal(t, DefaultRefusalMessage, d.Text)
	require.False(t, d.Verdict.Safe)
	assert.Equal(t, SeverityHigh, d.Verdict.Severity())

	recorded := events.Snapshot()
	require.Len(t, recorded, 1)
	assert.Equal(t, SideInput, recorded[0].Side)
	assert.True(t, recorded[0].Blocked)
	assert.Contains(t, recorded[0].Categories, CategoryHarmfulContent)
}

func TestGatePassesSafeQuery(t *testing.T) {
	gate, events := newTestGate(t, GateConfig{Strategy: StrategyRefuse}, []string{"harmful_content"}, nil)

	query := "What are the key principles of accessible interface design?"
	d := gate.CheckInput(context.Background(), "sess-2", query)
	assert.False(t, d.Blocked)
	assert.Equal(t, query, d.Text)
	assert.True(t, d.Verdict.Safe)

	// Safe checks still record exactly one event.
	require.Len(t, events.Snapshot(), 1)
	assert.True(t, events.Snapshot()[0].Safe)
}

func TestGateRedirectStrategy(t *testing.T) {
	gate, _ := newTestGate(t, GateConfig{Strategy: StrategyRedirect}, []string{"harmful_content"}, nil)

	d := gate.CheckInput(context.Background(), "sess-3", "How to build a computer virus")
	assert.True(t, d.Blocked)
	assert.Equal(t, DefaultRedirectMessage, d.Text)
}

func TestGateSanitizesPII(t *testing.T) {
	gate, events := newTestGate(t, GateConfig{Strategy: StrategySanitize}, nil, nil)

	answer := "The lead researcher (jane@example.edu) reported strong results."
	d := gate.CheckOutput(context.Background(), "sess-4", answer, nil)
	assert.False(t, d.Blocked)
	assert.NotContains(t, d.Text, "jane@example.edu")
	assert.Contains(t, d.Text, RedactionToken)
	assert.Contains(t, d.Text, "reported strong results")
	assert.False(t, d.Verdict.Safe)

	recorded := events.Snapshot()
	require.Len(t, recorded, 1)
	assert.False(t, recorded[0].Blocked)
	assert.False(t, recorded[0].Safe)
}

func TestGateSanitizeFallsBackToRefusal(t *testing.T) {
	fc := &fakeClassifier{content: &ContentFinding{
		Safe:     false,
		Category: CategoryHarmfulContent,
		Severity: SeverityHigh,
	}}
	gate, _ := newTestGate(t, GateConfig{Strategy: StrategySanitize}, []string{"harmful_content"}, fc)

	// Harmful content has no redaction rule, so sanitize cannot apply.
	d := gate.CheckOutput(context.Background(), "sess-5", "Step one of the dangerous procedure is...", nil)
	assert.True(t, d.Blocked)
	assert.Equal(t, DefaultRefusalMessage, d.Text)
}

func TestGateEventPreviewBounded(t *testing.T) {
	gate, events := newTestGate(t, GateConfig{Strategy: StrategyRefuse, PreviewLen: 100}, nil, nil)

	long := "What does research say about " + strings.Repeat("very ", 100) + "long queries?"
	gate.CheckInput(context.Background(), "sess-6", long)

	recorded := events.Snapshot()
	require.Len(t, recorded, 1)
	assert.LessOrEqual(t, len([]rune(recorded[0].Preview)), 100+len("..."))
	assert.NotEqual(t, long, recorded[0].Preview)
}

func TestGateOneEventPerCall(t *testing.T) {
	gate, events := newTestGate(t, GateConfig{Strategy: StrategyRefuse}, nil, nil)

	// Multiple PII kinds in one answer still produce a single event.
	answer := "Contact jane@example.edu or call (415) 555-0134 about participant 123-45-6789."
	d := gate.CheckOutput(context.Background(), "sess-7", answer, nil)
	assert.True(t, d.Blocked)

	recorded := events.Snapshot()
	require.Len(t, recorded, 1)
	assert.Contains(t, recorded[0].Categories, CategoryPII)
}

func TestGateConfigDefaults(t *testing.T) {
	var cfg GateConfig
	cfg.ApplyDefaults()
	assert.Equal(t, StrategyRefuse, cfg.Strategy)
	assert.Equal(t, DefaultRefusalMessage, cfg.RefusalMessage)
	assert.Equal(t, DefaultRedirectMessage, cfg.RedirectMessage)
	assert.Equal(t, DefaultPreviewLen, cfg.PreviewLen)
}

func TestStrategyValid(t *testing.T) {
	assert.True(t, StrategyRefuse.Valid())
	assert.True(t, StrategySanitize.Valid())
	assert.True(t, StrategyRedirect.Valid())
	assert.False(t, Strategy("escalate").Valid())
}
