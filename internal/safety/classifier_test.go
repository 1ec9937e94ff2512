package safety

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaforthlabs/roundtable/internal/backend"
)

func TestLLMClassifierCheckContentInput(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "HCI Research")
		return "```json\n{\"safe\": false, \"category\": \"HARMFUL\", \"reasoning\": \"requests dangerous instructions\", \"severity\": \"high\"}\n```", nil
	})
	c := NewLLMClassifier(gen, "HCI Research")

	finding, err := c.CheckContent(context.Background(), "a bad query", SideInput)
	require.NoError(t, err)
	assert.False(t, finding.Safe)
	assert.Equal(t, CategoryHarmfulContent, finding.Category)
	assert.Equal(t, SeverityHigh, finding.Severity)
}

func TestLLMClassifierCategoryMapping(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"OFF_TOPIC", CategoryOffTopic},
		{"PROMPT_INJECTION", CategoryPromptInjection},
		{"MISINFORMATION", CategoryMisinformation},
		{"BIAS", CategoryBias},
		{"something else", CategoryHarmfulContent},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
				return `{"safe": false, "category": "` + tt.raw + `", "reasoning": "", "severity": "low"}`, nil
			})
			finding, err := NewLLMClassifier(gen, "HCI Research").CheckContent(context.Background(), "q", SideInput)
			require.NoError(t, err)
			assert.Equal(t, tt.want, finding.Category)
		})
	}
}

func TestLLMClassifierCheckRelevance(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"relevant": false, "confidence": 0.95, "reasoning": "about cooking, not the topic"}`, nil
	})
	c := NewLLMClassifier(gen, "HCI Research")

	finding, err := c.CheckRelevance(context.Background(), "best pasta recipe", "HCI Research")
	require.NoError(t, err)
	assert.False(t, finding.Relevant)
	assert.InDelta(t, 0.95, finding.Confidence, 0.001)
}

func TestLLMClassifierCheckConsistency(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "reported a 60%")
		return `{"consistent": false, "inconsistencies": ["rate mismatch"], "reasoning": "claims differ from sources"}`, nil
	})
	c := NewLLMClassifier(gen, "HCI Research")

	finding, err := c.CheckConsistency(context.Background(), "success was 90%",
		[]string{"The study reported a 60% success rate."})
	require.NoError(t, err)
	assert.False(t, finding.Consistent)
	assert.Equal(t, []string{"rate mismatch"}, finding.Inconsistencies)
}

func TestLLMClassifierConsistencyNoEvidence(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("generator must not be called without evidence")
		return "", nil
	})
	finding, err := NewLLMClassifier(gen, "HCI Research").CheckConsistency(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.True(t, finding.Consistent)
}

func TestLLMClassifierCheckBias(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"has_bias": true, "bias_types": ["gender"], "reasoning": "stereotyping", "severity": "medium"}`, nil
	})
	finding, err := NewLLMClassifier(gen, "HCI Research").CheckBias(context.Background(), "some text")
	require.NoError(t, err)
	assert.True(t, finding.HasBias)
	assert.Equal(t, []string{"gender"}, finding.BiasTypes)
	assert.Equal(t, SeverityMedium, finding.Severity)
}

func TestLLMClassifierGeneratorError(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("backend down")
	})
	c := NewLLMClassifier(gen, "HCI Research")

	_, err := c.CheckContent(context.Background(), "q", SideInput)
	assert.Error(t, err)
	_, err = c.CheckRelevance(context.Background(), "q", "t")
	assert.Error(t, err)
	_, err = c.CheckBias(context.Background(), "q")
	assert.Error(t, err)
}

func TestLLMClassifierMalformedVerdict(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I think it is probably fine.", nil
	})
	_, err := NewLLMClassifier(gen, "HCI Research").CheckContent(context.Background(), "q", SideInput)
	assert.Error(t, err)
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityLow, parseSeverity("low"))
	assert.Equal(t, SeverityHigh, parseSeverity("HIGH"))
	assert.Equal(t, SeverityMedium, parseSeverity("medium"))
	assert.Equal(t, SeverityMedium, parseSeverity("unknown"))
}
