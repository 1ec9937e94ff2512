// Package judge scores released answers against weighted quality criteria
// using a model as the evaluator. Each criterion is judged from two
// perspectives and the perspective scores are averaged before weighting.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/logging"
)

// Criterion is one weighted evaluation dimension.
type Criterion struct {
	Name        string  `koanf:"name"`
	Weight      float64 `koanf:"weight"`
	Description string  `koanf:"description"`
}

// DefaultCriteria returns the standard evaluation rubric.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: "relevance", Weight: 0.25, Description: "How well the response addresses the query"},
		{Name: "evidence_quality", Weight: 0.25, Description: "Quality and proper citation of sources"},
		{Name: "factual_accuracy", Weight: 0.2, Description: "Consistency with the gathered evidence"},
		{Name: "safety_compliance", Weight: 0.15, Description: "Absence of unsafe or inappropriate content"},
		{Name: "clarity", Weight: 0.15, Description: "Organization and readability of the response"},
	}
}

// PerspectiveScore is one judge perspective's verdict on a criterion.
type PerspectiveScore struct {
	Perspective string  `json:"perspective"`
	Score       float64 `json:"score"`
	Reasoning   string  `json:"reasoning"`
}

// CriterionScore aggregates the perspectives for one criterion.
type CriterionScore struct {
	Criterion    string             `json:"criterion"`
	Score        float64            `json:"score"`
	Reasoning    string             `json:"reasoning"`
	Perspectives []PerspectiveScore `json:"perspectives"`
}

// Evaluation is the full scored verdict for one answer.
type Evaluation struct {
	Query           string                    `json:"query"`
	OverallScore    float64                   `json:"overall_score"`
	CriterionScores map[string]CriterionScore `json:"criterion_scores"`
}

// Judge evaluates answers with a generation backend.
type Judge struct {
	gen      backend.Generator
	criteria []Criterion
	logger   *logging.Logger
}

// New creates a judge. Empty criteria fall back to the default rubric.
func New(gen backend.Generator, criteria []Criterion, logger *logging.Logger) *Judge {
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}
	return &Judge{gen: gen, criteria: criteria, logger: logger}
}

// perspectives are the independent evaluator stances applied to every
// criterion.
var perspectives = []struct {
	name   string
	system string
}{
	{"academic", "You are an academic evaluator with expertise in research methodology and scholarly writing."},
	{"user_experience", "You are a user experience evaluator focused on clarity, usability, and practical value."},
}

// Evaluate scores an answer. sources lists the evidence the answer drew on
// and groundTruth is an optional reference answer; both may be empty. A
// criterion whose perspectives all fail scores zero rather than failing
// the evaluation.
func (j *Judge) Evaluate(ctx context.Context, query, answer string, sources []string, groundTruth string) (*Evaluation, error) {
	eval := &Evaluation{
		Query:           query,
		CriterionScores: make(map[string]CriterionScore),
	}

	var totalWeight, weighted float64
	for _, criterion := range j.criteria {
		score := j.judgeCriterion(ctx, criterion, query, answer, sources, groundTruth)
		eval.CriterionScores[criterion.Name] = score
		totalWeight += criterion.Weight
		weighted += score.Score * criterion.Weight
	}
	if totalWeight > 0 {
		eval.OverallScore = weighted / totalWeight
	}
	return eval, nil
}

// judgeCriterion collects perspective verdicts for one criterion.
func (j *Judge) judgeCriterion(ctx context.Context, criterion Criterion, query, answer string, sources []string, groundTruth string) CriterionScore {
	var scores []PerspectiveScore
	for _, p := range perspectives {
		prompt := j.buildPrompt(criterion, query, answer, sources, groundTruth, p.name, p.system)
		out, err := j.gen.Generate(ctx, prompt)
		if err != nil {
			j.logger.Warn(ctx, "judge perspective failed",
				zap.String("criterion", criterion.Name),
				zap.String("perspective", p.name),
				zap.Error(err))
			continue
		}
		score, reasoning, err := parseJudgment(out)
		if err != nil {
			j.logger.Warn(ctx, "unparseable judgment",
				zap.String("criterion", criterion.Name),
				zap.String("perspective", p.name),
				zap.Error(err))
			continue
		}
		scores = append(scores, PerspectiveScore{Perspective: p.name, Score: score, Reasoning: reasoning})
	}

	if len(scores) == 0 {
		return CriterionScore{
			Criterion: criterion.Name,
			Reasoning: "all judge perspectives failed",
		}
	}

	var sum float64
	var reasons []string
	for _, s := range scores {
		sum += s.Score
		if s.Reasoning != "" {
			reasons = append(reasons, s.Reasoning)
		}
	}
	return CriterionScore{
		Criterion:    criterion.Name,
		Score:        sum / float64(len(scores)),
		Reasoning:    strings.Join(reasons, " | "),
		Perspectives: scores,
	}
}

// parseJudgment extracts score and reasoning from a judge response,
// clamping the score to [0, 1].
func parseJudgment(out string) (float64, string, error) {
	var raw struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(backend.ExtractJSON(out)), &raw); err != nil {
		return 0, "", fmt.Errorf("invalid judgment: %w", err)
	}
	if raw.Score < 0 {
		raw.Score = 0
	}
	if raw.Score > 1 {
		raw.Score = 1
	}
	return raw.Score, raw.Reasoning, nil
}
