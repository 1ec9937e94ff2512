package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/conversation"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/tools"
)

// Planner breaks the query into a numbered research plan.
type Planner struct {
	gen      backend.Generator
	topic    string
	maxTurns int
}

func (p *Planner) Name() conversation.RoleName { return conversation.RolePlanner }

func (p *Planner) Produce(ctx context.Context, sess *conversation.Session) (conversation.Turn, error) {
	out, err := p.gen.Generate(ctx, fmt.Sprintf(plannerPrompt, p.topic, sess.Query))
	if err != nil {
		return conversation.Turn{}, err
	}
	return conversation.Turn{Role: conversation.RolePlanner, Content: out}, nil
}

// Researcher runs the registered tools and summarizes their evidence.
// Tool failures degrade the evidence rather than failing the turn.
type Researcher struct {
	gen      backend.Generator
	registry *tools.Registry
	topic    string
	maxTurns int
	logger   *logging.Logger
}

func (r *Researcher) Name() conversation.RoleName { return conversation.RoleResearcher }

func (r *Researcher) Produce(ctx context.Context, sess *conversation.Session) (conversation.Turn, error) {
	var calls []conversation.ToolCall
	if r.registry != nil && len(r.registry.List()) > 0 {
		calls = r.runTools(ctx, r.searchQueries(ctx, sess))
	}

	var results strings.Builder
	for _, call := range calls {
		if call.Error != "" {
			fmt.Fprintf(&results, "%s(%q) failed: %s\n\n", call.Name, call.Input, call.Error)
			continue
		}
		fmt.Fprintf(&results, "%s(%q):\n%s\n\n", call.Name, call.Input, call.Result)
	}
	if results.Len() == 0 {
		results.WriteString("(no tools available)")
	}

	prompt := fmt.Sprintf(researcherPrompt, r.topic, transcript(sess, r.maxTurns), strings.TrimSpace(results.String()))
	out, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return conversation.Turn{}, err
	}
	return conversation.Turn{
		Role:      conversation.RoleResearcher,
		Content:   out,
		ToolCalls: calls,
	}, nil
}

// searchQueries derives search terms from the plan, falling back to the
// raw query when extraction fails.
func (r *Researcher) searchQueries(ctx context.Context, sess *conversation.Session) []string {
	plan := ""
	for _, t := range sess.Turns {
		if t.Role == conversation.RolePlanner {
			plan = t.Content
		}
	}
	if plan == "" {
		return []string{sess.Query}
	}

	out, err := r.gen.Generate(ctx, fmt.Sprintf(searchTermsPrompt, plan))
	if err != nil {
		r.logger.Warn(ctx, "search term extraction failed, using raw query", zap.Error(err))
		return []string{sess.Query}
	}

	var queries []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" {
			queries = append(queries, line)
		}
		if len(queries) == 3 {
			break
		}
	}
	if len(queries) == 0 {
		return []string{sess.Query}
	}
	return queries
}

// runTools invokes every registered tool once per query and records each
// call, including failures.
func (r *Researcher) runTools(ctx context.Context, queries []string) []conversation.ToolCall {
	var calls []conversation.ToolCall
	for _, tool := range r.registry.List() {
		for _, q := range queries {
			call := conversation.ToolCall{Name: tool.Name(), Input: q}
			result, err := r.registry.Invoke(ctx, tool.Name(), q)
			if err != nil {
				call.Error = err.Error()
				r.logger.Warn(ctx, "tool call failed",
					zap.String("tool", tool.Name()),
					zap.Error(err))
			} else {
				call.Result = result
			}
			calls = append(calls, call)
		}
	}
	return calls
}

// Writer synthesizes the findings into the answer draft.
type Writer struct {
	gen      backend.Generator
	topic    string
	maxTurns int
}

func (w *Writer) Name() conversation.RoleName { return conversation.RoleWriter }

func (w *Writer) Produce(ctx context.Context, sess *conversation.Session) (conversation.Turn, error) {
	out, err := w.gen.Generate(ctx, fmt.Sprintf(writerPrompt, w.topic, sess.Query, transcript(sess, w.maxTurns)))
	if err != nil {
		return conversation.Turn{}, err
	}
	return conversation.Turn{Role: conversation.RoleWriter, Content: out}, nil
}

// Critic judges the draft and signals approval or revision.
type Critic struct {
	gen      backend.Generator
	topic    string
	maxTurns int
}

func (c *Critic) Name() conversation.RoleName { return conversation.RoleCritic }

func (c *Critic) Produce(ctx context.Context, sess *conversation.Session) (conversation.Turn, error) {
	out, err := c.gen.Generate(ctx, fmt.Sprintf(criticPrompt, c.topic, sess.Query, transcript(sess, c.maxTurns)))
	if err != nil {
		return conversation.Turn{}, err
	}
	return conversation.Turn{Role: conversation.RoleCritic, Content: out}, nil
}
