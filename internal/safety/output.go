package safety

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/logging"
)

// RedactionToken replaces PII spans when the sanitize strategy applies.
const RedactionToken = "[REDACTED]"

// piiPattern couples a regex with its PII kind. IP candidates get an extra
// octet check because the bare pattern also matches version strings.
type piiPattern struct {
	kind string
	re   *regexp.Regexp
}

var piiPatterns = []piiPattern{
	{"email", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit_card", regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
	{"phone_us", regexp.MustCompile(`\b\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{"phone_international", regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}`)},
	{"ip_address", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

// validIP confirms every octet of a dotted-quad candidate is <= 255.
func validIP(s string) bool {
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// DetectPII scans text and returns the offending spans grouped by kind.
// Keys appear only for kinds with at least one match.
func DetectPII(text string) map[string][]string {
	found := make(map[string][]string)
	for _, p := range piiPatterns {
		matches := p.re.FindAllString(text, -1)
		if p.kind == "ip_address" {
			kept := matches[:0]
			for _, m := range matches {
				if validIP(m) {
					kept = append(kept, m)
				}
			}
			matches = kept
		}
		if len(matches) > 0 {
			found[p.kind] = matches
		}
	}
	return found
}

// RedactPII replaces every detected PII span in text with RedactionToken.
func RedactPII(text string) string {
	for _, p := range piiPatterns {
		text = p.re.ReplaceAllStringFunc(text, func(m string) string {
			if p.kind == "ip_address" && !validIP(m) {
				return m
			}
			return RedactionToken
		})
	}
	return text
}

// OutputValidator screens generated answers before release. PII detection
// always applies; harm, consistency and bias checks require a classifier.
type OutputValidator struct {
	prohibited map[Category]bool
	classifier Classifier
	logger     *logging.Logger
}

// NewOutputValidator builds a validator. prohibited selects which
// classifier-backed categories are enforced.
func NewOutputValidator(prohibited []string, classifier Classifier, logger *logging.Logger) *OutputValidator {
	set := make(map[Category]bool, len(prohibited))
	for _, p := range prohibited {
		set[Category(strings.ToLower(strings.TrimSpace(p)))] = true
	}
	return &OutputValidator{
		prohibited: set,
		classifier: classifier,
		logger:     logger,
	}
}

func (v *OutputValidator) enforced(c Category) bool {
	return c.Structural() || v.prohibited[c]
}

// Validate runs all output checks on the answer. evidence is the set of
// successful tool results gathered during the session; consistency is
// checked against it when non-empty.
func (v *OutputValidator) Validate(ctx context.Context, answer string, evidence []string) *Verdict {
	verdict := &Verdict{Side: SideOutput, Safe: true}

	if pii := DetectPII(answer); len(pii) > 0 {
		var kinds []string
		var matches []string
		for kind, spans := range pii {
			kinds = append(kinds, kind)
			matches = append(matches, spans...)
		}
		verdict.add(Violation{
			Category:  CategoryPII,
			Severity:  SeverityHigh,
			Reason:    fmt.Sprintf("answer contains PII: %s", strings.Join(kinds, ", ")),
			Validator: "pii_patterns",
			Matches:   matches,
		})
	}

	if v.classifier != nil {
		v.classify(ctx, answer, evidence, verdict)
	}

	return verdict
}

func (v *OutputValidator) classify(ctx context.Context, answer string, evidence []string, verdict *Verdict) {
	finding, err := v.classifier.CheckContent(ctx, answer, SideOutput)
	if err != nil {
		v.logger.Warn(ctx, "output content check unavailable", zap.Error(err))
	} else if !finding.Safe && v.enforced(finding.Category) {
		verdict.add(Violation{
			Category:  finding.Category,
			Severity:  finding.Severity,
			Reason:    finding.Reasoning,
			Validator: "classifier",
		})
	}

	if v.prohibited[CategoryFactualInconsistency] && len(evidence) > 0 {
		cons, err := v.classifier.CheckConsistency(ctx, answer, evidence)
		if err != nil {
			v.logger.Warn(ctx, "consistency check unavailable", zap.Error(err))
		} else if !cons.Consistent {
			reason := cons.Reasoning
			if len(cons.Inconsistencies) > 0 {
				reason = strings.Join(cons.Inconsistencies, "; ")
			}
			verdict.add(Violation{
				Category:  CategoryFactualInconsistency,
				Severity:  SeverityMedium,
				Reason:    reason,
				Validator: "consistency",
			})
		}
	}

	if v.prohibited[CategoryBias] && !verdict.has(CategoryBias) {
		bias, err := v.classifier.CheckBias(ctx, answer)
		if err != nil {
			v.logger.Warn(ctx, "bias check unavailable", zap.Error(err))
		} else if bias.HasBias {
			verdict.add(Violation{
				Category:  CategoryBias,
				Severity:  bias.Severity,
				Reason:    bias.Reasoning,
				Validator: "bias",
			})
		}
	}
}
