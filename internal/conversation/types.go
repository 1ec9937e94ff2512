// Package conversation defines the session data model for multi-agent
// research runs. A Session is a single end-to-end conversation between the
// fixed role sequence (planner, researcher, writer, critic); each role's
// contribution is recorded as an immutable Turn. The orchestrator owns the
// Session for its lifetime and is the only writer.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleName identifies a participant in the role sequence.
type RoleName string

const (
	RolePlanner    RoleName = "planner"
	RoleResearcher RoleName = "researcher"
	RoleWriter     RoleName = "writer"
	RoleCritic     RoleName = "critic"
)

// Status represents the lifecycle state of a Session.
type Status string

const (
	// StatusCreated is the initial state before the first turn.
	StatusCreated Status = "created"

	// StatusPlanning means the planner produces the next turn.
	StatusPlanning Status = "planning"

	// StatusResearching means the researcher produces the next turn.
	StatusResearching Status = "researching"

	// StatusWriting means the writer produces the next turn.
	StatusWriting Status = "writing"

	// StatusCritiquing means the critic produces the next turn.
	StatusCritiquing Status = "critiquing"

	// StatusDone is terminal: the critic approved a final answer.
	StatusDone Status = "done"

	// StatusTimedOut is terminal: the session deadline expired.
	StatusTimedOut Status = "timed_out"

	// StatusRoundLimitExceeded is terminal: no terminal signal within the
	// round budget.
	StatusRoundLimitExceeded Status = "round_limit_exceeded"

	// StatusErrored is terminal: a role invocation failed past retries or
	// violated the handoff protocol.
	StatusErrored Status = "errored"

	// StatusSafetyBlocked is terminal: the input or output gate refused the
	// session's content.
	StatusSafetyBlocked Status = "safety_blocked"
)

// Terminal reports whether the status is final. A terminal Session is frozen:
// no further turns are appended and the status is never reassigned.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusTimedOut, StatusRoundLimitExceeded, StatusErrored, StatusSafetyBlocked:
		return true
	}
	return false
}

// RoleFor returns the role bound to an active (non-terminal) status.
func (s Status) RoleFor() (RoleName, bool) {
	switch s {
	case StatusPlanning:
		return RolePlanner, true
	case StatusResearching:
		return RoleResearcher, true
	case StatusWriting:
		return RoleWriter, true
	case StatusCritiquing:
		return RoleCritic, true
	}
	return "", false
}

// ToolCall records a single tool invocation performed during a turn.
// A failed invocation carries the error text; the role still proceeds with
// whatever evidence it has.
type ToolCall struct {
	Name   string `json:"name"`
	Input  string `json:"input,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Turn is one role's contribution to the conversation. Turns are immutable
// once appended; their order within a Session is the conversation's total
// order.
type Turn struct {
	Role      RoleName   `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Session is one end-to-end run of the role sequence for a single query.
type Session struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Turns     []Turn    `json:"turns"`
	Rounds    int       `json:"rounds"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at"`

	// FinalAnswer is set only when Status is StatusDone.
	FinalAnswer string `json:"final_answer,omitempty"`
}

// NewSession creates a Session in the created state.
func NewSession(query string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Query:     query,
		Status:    StatusCreated,
		StartedAt: time.Now(),
	}
}

// Append records a turn. Appending to a terminal session is a no-op.
func (s *Session) Append(t Turn) {
	if s.Status.Terminal() {
		return
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	s.Turns = append(s.Turns, t)
}

// LastTurn returns the most recent turn, or false if none exist.
func (s *Session) LastTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// Evidence collects tool results recorded across all turns, in conversation
// order. Failed invocations contribute nothing.
func (s *Session) Evidence() []string {
	var evidence []string
	for _, t := range s.Turns {
		for _, tc := range t.ToolCalls {
			if tc.Error == "" && tc.Result != "" {
				evidence = append(evidence, tc.Result)
			}
		}
	}
	return evidence
}

// History renders the transcript handed to a role. When the transcript
// exceeds maxTurns the first turn is kept and the middle is dropped, so
// roles always see the original framing plus the most recent exchanges.
// The recorded transcript itself is never truncated. maxTurns <= 0 disables
// bounding.
func (s *Session) History(maxTurns int) []Turn {
	turns := s.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		bounded := make([]Turn, 0, maxTurns)
		bounded = append(bounded, turns[0])
		bounded = append(bounded, turns[len(turns)-(maxTurns-1):]...)
		turns = bounded
	}
	return turns
}

// ExtractAnswer returns the final answer from a completed transcript: the
// last writer or critic turn with substance left after stripping handoff
// markers. A critic turn that is marker-only is skipped in favor of the
// writer's draft. Falls back to the last turn when neither role spoke.
func (s *Session) ExtractAnswer() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		t := s.Turns[i]
		if t.Role != RoleWriter && t.Role != RoleCritic {
			continue
		}
		if stripped := StripSignals(t.Content); stripped != "" {
			return stripped
		}
	}
	if last, ok := s.LastTurn(); ok {
		return StripSignals(last.Content)
	}
	return ""
}

// StripSignals removes handoff marker literals from text.
func StripSignals(text string) string {
	for _, sig := range allSignals {
		text = strings.ReplaceAll(text, string(sig), "")
	}
	return strings.TrimSpace(text)
}
