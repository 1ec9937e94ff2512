package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/logging"
)

const (
	// MinQueryLength is the shortest accepted query in characters.
	MinQueryLength = 5
	// MaxQueryLength is the longest accepted query in characters.
	MaxQueryLength = 2000
)

// injectionPatterns are phrases characteristic of attempts to override
// system behavior. Matched case-insensitively against the raw query.
var injectionPatterns = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard",
	"forget everything",
	"system:",
	"sudo",
	"override",
	"new instructions",
	"you are now",
	"pretend to be",
	"act as if",
}

// harmfulPatterns catch requests for dangerous capabilities without a
// model round-trip. Each pattern requires an action verb near a harmful
// object so that ordinary research phrasing does not trip it.
var harmfulPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(build|create|make|write|develop|design)\b.{0,40}\b(virus|malware|ransomware|trojan|worm|spyware|keylogger|botnet)\b`),
	regexp.MustCompile(`(?i)\b(build|create|make|construct|assemble)\b.{0,40}\b(bomb|explosive|weapon|firearm)\b`),
	regexp.MustCompile(`(?i)\b(hack|break)\s+into\b`),
	regexp.MustCompile(`(?i)\b(steal|exfiltrate)\b.{0,40}\b(password|credential|data)s?\b`),
	regexp.MustCompile(`(?i)\bhow\s+to\s+(hurt|harm|kill|poison)\b`),
}

// InputValidator screens user queries before any role runs. Structural
// checks (length, injection phrases, harmful patterns) always apply;
// classifier checks run only when a classifier is configured.
type InputValidator struct {
	topic      string
	prohibited map[Category]bool
	classifier Classifier
	logger     *logging.Logger
}

// NewInputValidator builds a validator for the given topic. prohibited
// selects which classifier-backed categories are enforced; structural
// categories are enforced regardless.
func NewInputValidator(topic string, prohibited []string, classifier Classifier, logger *logging.Logger) *InputValidator {
	set := make(map[Category]bool, len(prohibited))
	for _, p := range prohibited {
		set[Category(strings.ToLower(strings.TrimSpace(p)))] = true
	}
	return &InputValidator{
		topic:      topic,
		prohibited: set,
		classifier: classifier,
		logger:     logger,
	}
}

// enforced reports whether findings in the category should block.
func (v *InputValidator) enforced(c Category) bool {
	return c.Structural() || v.prohibited[c]
}

// Validate runs all input checks and returns the collected verdict.
// Classifier failures degrade to pattern-only validation rather than
// failing the query.
func (v *InputValidator) Validate(ctx context.Context, query string) *Verdict {
	verdict := &Verdict{Side: SideInput, Safe: true}

	trimmed := strings.TrimSpace(query)
	if n := len([]rune(trimmed)); n < MinQueryLength || n > MaxQueryLength {
		verdict.add(Violation{
			Category:  CategoryInvalidLength,
			Severity:  SeverityLow,
			Reason:    fmt.Sprintf("query length %d outside [%d, %d]", n, MinQueryLength, MaxQueryLength),
			Validator: "length",
		})
		// Nothing further to check on degenerate input.
		return verdict
	}

	lower := strings.ToLower(query)
	for _, phrase := range injectionPatterns {
		if strings.Contains(lower, phrase) {
			verdict.add(Violation{
				Category:  CategoryPromptInjection,
				Severity:  SeverityHigh,
				Reason:    fmt.Sprintf("injection phrase %q detected", phrase),
				Validator: "injection_patterns",
				Excerpt:   excerpt(query, 80),
			})
			break
		}
	}

	for _, re := range harmfulPatterns {
		if m := re.FindString(query); m != "" && v.enforced(CategoryHarmfulContent) {
			verdict.add(Violation{
				Category:  CategoryHarmfulContent,
				Severity:  SeverityHigh,
				Reason:    "query requests harmful capability",
				Validator: "harmful_patterns",
				Excerpt:   m,
			})
			break
		}
	}

	if v.classifier != nil {
		v.classify(ctx, query, verdict)
	}

	return verdict
}

// classify runs model-backed checks, skipping categories that are not
// enforced and tolerating classifier errors.
func (v *InputValidator) classify(ctx context.Context, query string, verdict *Verdict) {
	finding, err := v.classifier.CheckContent(ctx, query, SideInput)
	if err != nil {
		v.logger.Warn(ctx, "input content check unavailable", zap.Error(err))
	} else if !finding.Safe && v.enforced(finding.Category) {
		verdict.add(Violation{
			Category:  finding.Category,
			Severity:  finding.Severity,
			Reason:    finding.Reasoning,
			Validator: "classifier",
		})
	}

	if !v.prohibited[CategoryOffTopic] || verdict.has(CategoryOffTopic) {
		return
	}
	rel, err := v.classifier.CheckRelevance(ctx, query, v.topic)
	if err != nil {
		v.logger.Warn(ctx, "relevance check unavailable", zap.Error(err))
		return
	}
	if !rel.Relevant {
		verdict.add(Violation{
			Category:  CategoryOffTopic,
			Severity:  SeverityLow,
			Reason:    fmt.Sprintf("query unrelated to %s: %s", v.topic, rel.Reasoning),
			Validator: "relevance",
		})
	}
}
