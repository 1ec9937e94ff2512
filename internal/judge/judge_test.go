package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/logging"
)

func TestEvaluateAggregatesScores(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"score": 0.8, "reasoning": "well supported"}`, nil
	})
	j := New(gen, []Criterion{
		{Name: "relevance", Weight: 0.5, Description: "addresses the query"},
		{Name: "clarity", Weight: 0.5, Description: "readable"},
	}, logging.NewNop())

	eval, err := j.Evaluate(context.Background(), "a query", "an answer", nil, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, eval.OverallScore, 0.001)
	require.Len(t, eval.CriterionScores, 2)

	rel := eval.CriterionScores["relevance"]
	assert.InDelta(t, 0.8, rel.Score, 0.001)
	assert.Len(t, rel.Perspectives, 2)
	assert.Contains(t, rel.Reasoning, "well supported")
}

func TestEvaluateWeighting(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "criterion: relevance") {
			return `{"score": 1.0, "reasoning": "on point"}`, nil
		}
		return `{"score": 0.0, "reasoning": "unclear"}`, nil
	})
	j := New(gen, []Criterion{
		{Name: "relevance", Weight: 3},
		{Name: "clarity", Weight: 1},
	}, logging.NewNop())

	eval, err := j.Evaluate(context.Background(), "q", "a", nil, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, eval.OverallScore, 0.001)
}

func TestEvaluateDefaultCriteria(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"score": 0.5, "reasoning": "average"}`, nil
	})
	j := New(gen, nil, logging.NewNop())

	eval, err := j.Evaluate(context.Background(), "q", "a", nil, "")
	require.NoError(t, err)
	assert.Len(t, eval.CriterionScores, 5)
	assert.Contains(t, eval.CriterionScores, "factual_accuracy")
}

func TestEvaluateAllPerspectivesFail(t *testing.T) {
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("backend down")
	})
	j := New(gen, []Criterion{{Name: "relevance", Weight: 1}}, logging.NewNop())

	eval, err := j.Evaluate(context.Background(), "q", "a", nil, "")
	require.NoError(t, err)
	assert.Zero(t, eval.OverallScore)
	assert.Equal(t, "all judge perspectives failed", eval.CriterionScores["relevance"].Reasoning)
}

func TestEvaluatePartialPerspectiveFailure(t *testing.T) {
	calls := 0
	gen := backend.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "not json at all", nil
		}
		return `{"score": 0.6, "reasoning": "decent"}`, nil
	})
	j := New(gen, []Criterion{{Name: "clarity", Weight: 1}}, logging.NewNop())

	eval, err := j.Evaluate(context.Background(), "q", "a", nil, "")
	require.NoError(t, err)
	score := eval.CriterionScores["clarity"]
	assert.InDelta(t, 0.6, score.Score, 0.001)
	assert.Len(t, score.Perspectives, 1)
}

func TestParseJudgment(t *testing.T) {
	score, reasoning, err := parseJudgment("```json\n{\"score\": 0.9, \"reasoning\": \"solid\"}\n```")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 0.001)
	assert.Equal(t, "solid", reasoning)

	score, _, err = parseJudgment(`{"score": 1.7, "reasoning": "overenthusiastic"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, _, err = parseJudgment(`{"score": -0.2, "reasoning": "harsh"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, _, err = parseJudgment("no json here")
	assert.Error(t, err)
}

func TestBuildPromptIncludesSourcesAndGroundTruth(t *testing.T) {
	j := New(nil, nil, logging.NewNop())
	prompt := j.buildPrompt(Criterion{Name: "relevance", Description: "d"},
		"the query", "the answer",
		[]string{"source one", "source two"}, "the expected answer",
		"academic", "You are an academic evaluator.")

	assert.Contains(t, prompt, "the query")
	assert.Contains(t, prompt, "the answer")
	assert.Contains(t, prompt, "source one")
	assert.Contains(t, prompt, "the expected answer")
	assert.Contains(t, prompt, "academic perspective")
	assert.Contains(t, prompt, "0.9-1.0: Response fully and comprehensively addresses the query")
}
