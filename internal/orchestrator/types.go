// Package orchestrator drives research sessions through the role sequence
// and wraps them in the safety gate. The executor owns the turn-taking
// state machine; the service owns gating, timeouts and result assembly.
package orchestrator

import (
	"time"

	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/safety"
)

// Config bounds session execution.
type Config struct {
	// MaxRounds caps role invocations per session. Every role invocation
	// consumes one round whether or not it advances the phase.
	MaxRounds int

	// Timeout bounds a whole session including gate checks.
	Timeout time.Duration

	// MaxContextTurns caps the transcript handed to each role.
	MaxContextTurns int
}

// Result is the externally visible outcome of one query.
type Result struct {
	SessionID string              `json:"session_id"`
	Query     string              `json:"query"`
	Status    conversation.Status `json:"status"`

	// Answer is the released text: the approved answer for done sessions,
	// a refusal or redirect message for blocked ones, empty otherwise.
	Answer string `json:"answer,omitempty"`

	// Message describes non-done outcomes for the caller.
	Message string `json:"message,omitempty"`

	Turns      []conversation.Turn `json:"turns,omitempty"`
	Rounds     int                 `json:"rounds"`
	Violations []safety.Violation  `json:"violations,omitempty"`
	Elapsed    time.Duration       `json:"elapsed"`
}
