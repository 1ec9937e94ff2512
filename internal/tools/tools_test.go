package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool is a fixed-output tool for registry tests.
type stubTool struct {
	name string
	out  string
	err  error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Call(ctx context.Context, input string) (string, error) {
	return s.out, s.err
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "web_search"})

	tool, ok := r.Get("web_search")
	require.True(t, ok)
	assert.Equal(t, "web_search", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "web_search"})
	r.Register(&stubTool{name: "paper_search"})

	list := r.List()

	require.Len(t, list, 2)
	assert.Equal(t, "paper_search", list[0].Name())
	assert.Equal(t, "web_search", list[1].Name())
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "web_search", out: "results"})

	out, err := r.Invoke(context.Background(), "web_search", "query")

	require.NoError(t, err)
	assert.Equal(t, "results", out)
}

func TestRegistry_InvokeWrapsFailure(t *testing.T) {
	r := NewRegistry()
	cause := errors.New("network down")
	r.Register(&stubTool{name: "paper_search", err: cause})

	_, err := r.Invoke(context.Background(), "paper_search", "query")

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "paper_search", toolErr.Tool)
	assert.ErrorIs(t, err, cause)
}

func TestRegistry_InvokeUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "nope", "query")

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "nope", toolErr.Tool)
}
