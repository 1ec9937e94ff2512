// Package safety implements the input/output validation pipeline that
// guards research sessions. Validators inspect raw text and produce
// verdicts; the Gate applies a configured response strategy and records
// every decision in the safety event log.
package safety

// Side identifies which boundary produced a verdict.
type Side string

const (
	SideInput  Side = "input"
	SideOutput Side = "output"
)

// Severity indicates how serious a violation is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Category is an enumerated policy breach class.
type Category string

const (
	CategoryHarmfulContent       Category = "harmful_content"
	CategoryPromptInjection      Category = "prompt_injection"
	CategoryOffTopic             Category = "off_topic_queries"
	CategoryPII                  Category = "pii"
	CategoryBias                 Category = "bias"
	CategoryFactualInconsistency Category = "factual_inconsistency"
	CategoryInvalidLength        Category = "invalid_length"
	CategoryPersonalAttacks      Category = "personal_attacks"
	CategoryMisinformation       Category = "misinformation"
)

// structuralCategories are enforced regardless of the configured prohibited
// set: they guard the pipeline itself rather than express content policy.
var structuralCategories = map[Category]bool{
	CategoryInvalidLength:   true,
	CategoryPromptInjection: true,
	CategoryPII:             true,
}

// Structural reports whether a category is always enforced.
func (c Category) Structural() bool {
	return structuralCategories[c]
}

// Violation is a single detected policy breach.
type Violation struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`

	// Validator names the check that produced the violation.
	Validator string `json:"validator"`

	// Excerpt is a short sample of the offending text.
	Excerpt string `json:"excerpt,omitempty"`

	// Matches holds the exact offending spans when the violation has a
	// redaction rule (PII). Empty for violations with no redaction rule.
	Matches []string `json:"matches,omitempty"`
}

// Redactable reports whether the violation carries spans that can be
// replaced by a redaction token.
func (v Violation) Redactable() bool {
	return len(v.Matches) > 0
}

// Verdict is the outcome of validating one piece of text. It is ephemeral:
// consumed immediately by the caller and persisted only as an event log
// record.
type Verdict struct {
	Side       Side        `json:"side"`
	Safe       bool        `json:"safe"`
	Violations []Violation `json:"violations,omitempty"`

	// Blocked is set by the gate when the strategy withheld the original
	// text. A fully sanitized verdict is unsafe but not blocked.
	Blocked bool `json:"blocked,omitempty"`
}

// Severity returns the maximum severity across violations, or empty for a
// safe verdict.
func (v *Verdict) Severity() Severity {
	var max Severity
	for _, violation := range v.Violations {
		if severityRank[violation.Severity] > severityRank[max] {
			max = violation.Severity
		}
	}
	return max
}

// add records a violation and clears the safe flag.
func (v *Verdict) add(violation Violation) {
	v.Safe = false
	v.Violations = append(v.Violations, violation)
}

// has reports whether a violation in the category was already recorded.
func (v *Verdict) has(c Category) bool {
	for _, violation := range v.Violations {
		if violation.Category == c {
			return true
		}
	}
	return false
}

// Categories returns the distinct violation categories in detection order.
func (v *Verdict) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, violation := range v.Violations {
		if !seen[violation.Category] {
			seen[violation.Category] = true
			out = append(out, violation.Category)
		}
	}
	return out
}

// excerpt bounds a text sample attached to a violation.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
