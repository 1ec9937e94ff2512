// Package agent implements the four roles that take turns on a research
// session: planner, researcher, writer and critic. Each role reads the
// session transcript, produces one turn, and marks completion with its
// handoff signal.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/tools"
)

// Role produces one turn for a session.
type Role interface {
	Name() conversation.RoleName
	Produce(ctx context.Context, sess *conversation.Session) (conversation.Turn, error)
}

// Team holds one implementation per role.
type Team struct {
	roles map[conversation.RoleName]Role
}

// NewTeam builds the standard four-role team over a shared generator.
// registry supplies the researcher's tools and may be nil.
func NewTeam(gen backend.Generator, registry *tools.Registry, topic string, maxContextTurns int, logger *logging.Logger) *Team {
	t := &Team{roles: make(map[conversation.RoleName]Role)}
	t.Add(&Planner{gen: gen, topic: topic, maxTurns: maxContextTurns})
	t.Add(&Researcher{gen: gen, registry: registry, topic: topic, maxTurns: maxContextTurns, logger: logger})
	t.Add(&Writer{gen: gen, topic: topic, maxTurns: maxContextTurns})
	t.Add(&Critic{gen: gen, topic: topic, maxTurns: maxContextTurns})
	return t
}

// Add registers a role, replacing any existing one with the same name.
func (t *Team) Add(r Role) {
	t.roles[r.Name()] = r
}

// Get returns the role registered under name.
func (t *Team) Get(name conversation.RoleName) (Role, bool) {
	r, ok := t.roles[name]
	return r, ok
}

// transcript renders the bounded session history for a role prompt.
func transcript(sess *conversation.Session, maxTurns int) string {
	turns := sess.History(maxTurns)
	if len(turns) == 0 {
		return "(no turns yet)"
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", t.Role, t.Content)
	}
	return strings.TrimSpace(b.String())
}
