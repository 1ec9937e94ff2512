package safety

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/logging"
)

// Strategy determines how the gate responds to an unsafe verdict.
type Strategy string

const (
	// StrategyRefuse withholds the text and substitutes a refusal message.
	StrategyRefuse Strategy = "refuse"
	// StrategySanitize redacts offending spans where a redaction rule
	// exists and falls back to refusal where none does.
	StrategySanitize Strategy = "sanitize"
	// StrategyRedirect withholds the text and suggests an on-topic
	// alternative.
	StrategyRedirect Strategy = "redirect"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRefuse, StrategySanitize, StrategyRedirect:
		return true
	}
	return false
}

// DefaultRefusalMessage is returned when a query or answer is withheld.
const DefaultRefusalMessage = "I'm sorry, but I can't help with that request. " +
	"It falls outside the boundaries of what this research assistant can safely discuss."

// DefaultRedirectMessage is returned by the redirect strategy.
const DefaultRedirectMessage = "That request isn't something I can help with, " +
	"but I'd be happy to explore a related research question with you instead."

// DefaultPreviewLen bounds the text sample stored with each event.
const DefaultPreviewLen = 100

// GateConfig controls gate behavior.
type GateConfig struct {
	Strategy        Strategy `koanf:"strategy"`
	RefusalMessage  string   `koanf:"refusal_message"`
	RedirectMessage string   `koanf:"redirect_message"`
	PreviewLen      int      `koanf:"preview_len"`
}

// ApplyDefaults fills zero values.
func (c *GateConfig) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyRefuse
	}
	if c.RefusalMessage == "" {
		c.RefusalMessage = DefaultRefusalMessage
	}
	if c.RedirectMessage == "" {
		c.RedirectMessage = DefaultRedirectMessage
	}
	if c.PreviewLen <= 0 {
		c.PreviewLen = DefaultPreviewLen
	}
}

// Decision is the outcome of one gate enforcement.
type Decision struct {
	Verdict *Verdict

	// Text is the content to use downstream: the original when safe, a
	// sanitized copy when redaction fully covered the violations, or a
	// refusal/redirect message when blocked.
	Text string

	// Blocked reports that the original text was withheld.
	Blocked bool
}

// Gate applies a response strategy to validator verdicts and records every
// decision. Logging failures never fail the enforcement call.
type Gate struct {
	input  *InputValidator
	output *OutputValidator
	cfg    GateConfig
	events *EventLog
	logger *logging.Logger
}

// NewGate assembles a gate from its parts.
func NewGate(input *InputValidator, output *OutputValidator, cfg GateConfig, events *EventLog, logger *logging.Logger) *Gate {
	cfg.ApplyDefaults()
	return &Gate{
		input:  input,
		output: output,
		cfg:    cfg,
		events: events,
		logger: logger,
	}
}

// CheckInput validates a user query before any role runs.
func (g *Gate) CheckInput(ctx context.Context, sessionID, query string) Decision {
	verdict := g.input.Validate(ctx, query)
	return g.decide(ctx, sessionID, query, verdict)
}

// CheckOutput validates a final answer before release. evidence holds the
// session's successful tool results for consistency checking.
func (g *Gate) CheckOutput(ctx context.Context, sessionID, answer string, evidence []string) Decision {
	verdict := g.output.Validate(ctx, answer, evidence)
	return g.decide(ctx, sessionID, answer, verdict)
}

// decide applies the configured strategy and records exactly one event.
func (g *Gate) decide(ctx context.Context, sessionID, text string, verdict *Verdict) Decision {
	d := Decision{Verdict: verdict, Text: text}

	if !verdict.Safe {
		switch g.cfg.Strategy {
		case StrategySanitize:
			if sanitized, ok := g.sanitize(text, verdict); ok {
				d.Text = sanitized
			} else {
				d.Blocked = true
				d.Text = g.cfg.RefusalMessage
			}
		case StrategyRedirect:
			d.Blocked = true
			d.Text = g.cfg.RedirectMessage
		default:
			d.Blocked = true
			d.Text = g.cfg.RefusalMessage
		}
		verdict.Blocked = d.Blocked
	}

	g.record(ctx, sessionID, text, verdict)
	return d
}

// sanitize redacts the offending spans. It succeeds only when every
// violation carries a redaction rule; any violation without one forces
// the refusal fallback.
func (g *Gate) sanitize(text string, verdict *Verdict) (string, bool) {
	for _, violation := range verdict.Violations {
		if !violation.Redactable() {
			return "", false
		}
	}
	sanitized := RedactPII(text)
	for _, violation := range verdict.Violations {
		for _, span := range violation.Matches {
			sanitized = strings.ReplaceAll(sanitized, span, RedactionToken)
		}
	}
	return sanitized, true
}

// record writes the event to the log and emits a structured log line. A
// failing event log is reported but never propagated.
func (g *Gate) record(ctx context.Context, sessionID, text string, verdict *Verdict) {
	ev := Event{
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		Side:       verdict.Side,
		Safe:       verdict.Safe,
		Blocked:    verdict.Blocked,
		Strategy:   g.cfg.Strategy,
		Severity:   verdict.Severity(),
		Categories: verdict.Categories(),
		Preview:    logging.Truncate(text, g.cfg.PreviewLen),
	}
	for _, violation := range verdict.Violations {
		ev.Reasons = append(ev.Reasons, violation.Reason)
	}

	if err := g.events.Record(ev); err != nil {
		g.logger.Warn(ctx, "safety event not persisted", zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("session_id", sessionID),
		zap.String("side", string(verdict.Side)),
		zap.Bool("safe", verdict.Safe),
		zap.Bool("blocked", verdict.Blocked),
	}
	if verdict.Safe {
		g.logger.Debug(ctx, "safety check passed", fields...)
		return
	}
	fields = append(fields,
		zap.String("severity", string(verdict.Severity())),
		zap.Any("categories", verdict.Categories()),
	)
	g.logger.Warn(ctx, "safety check flagged content", fields...)
}
