// Package tools provides the evidence-gathering tools the researcher role
// may invoke: web search and academic paper search. Tool failures are
// deliberately non-fatal; the caller records the error and proceeds with
// whatever evidence it has.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Tool is a single callable evidence source.
type Tool interface {
	// Name returns the tool identifier.
	Name() string

	// Description explains what the tool does, for prompt construction.
	Description() string

	// Call invokes the tool with a free-text input and returns formatted
	// results.
	Call(ctx context.Context, input string) (string, error)
}

// ToolError wraps a failure from a named tool. It never escapes the role
// boundary; orchestration treats it as a degraded evidence set.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Registry holds the available tools. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke calls the named tool, wrapping any failure in a ToolError. An
// unknown tool name is also a ToolError.
func (r *Registry) Invoke(ctx context.Context, name, input string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", &ToolError{Tool: name, Err: fmt.Errorf("unknown tool")}
	}
	out, err := t.Call(ctx, input)
	if err != nil {
		return "", &ToolError{Tool: name, Err: err}
	}
	return out, nil
}
