package conversation

import (
	"errors"
	"strings"
)

// Signal is a handoff marker a role embeds in its turn text to drive the
// state machine. Detection is a fixed literal scan; this file is the only
// place marker strings are interpreted.
type Signal string

const (
	SignalPlanDone      Signal = "PLAN_DONE"
	SignalResearchDone  Signal = "RESEARCH_DONE"
	SignalDraftDone     Signal = "DRAFT_DONE"
	SignalApproved      Signal = "APPROVED"
	SignalNeedsRevision Signal = "NEEDS_REVISION"
)

var allSignals = []Signal{
	SignalPlanDone,
	SignalResearchDone,
	SignalDraftDone,
	SignalNeedsRevision,
	SignalApproved,
}

// ErrContradictorySignals is returned when a critic turn carries both an
// approval and a revision marker; neither can be honored.
var ErrContradictorySignals = errors.New("turn contains contradictory handoff signals")

// expectedSignals maps each role to the markers it is allowed to emit.
// Markers belonging to any other role are ignored, so a role cannot forge a
// downstream transition.
var expectedSignals = map[RoleName][]Signal{
	RolePlanner:    {SignalPlanDone},
	RoleResearcher: {SignalResearchDone},
	RoleWriter:     {SignalDraftDone},
	RoleCritic:     {SignalApproved, SignalNeedsRevision},
}

// DetectSignal scans turn text for the marker expected from the given role.
// It returns false when no expected marker is present; empty or
// whitespace-only text is always treated as absent. A critic turn carrying
// both APPROVED and NEEDS_REVISION is contradictory and returns
// ErrContradictorySignals.
func DetectSignal(role RoleName, text string) (Signal, bool, error) {
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}

	var found []Signal
	for _, sig := range expectedSignals[role] {
		if strings.Contains(text, string(sig)) {
			found = append(found, sig)
		}
	}

	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
		return found[0], true, nil
	default:
		return "", false, ErrContradictorySignals
	}
}

// Forward reports whether a signal advances the sequence (as opposed to
// NEEDS_REVISION, which loops back to research).
func (s Signal) Forward() bool {
	return s != SignalNeedsRevision
}
