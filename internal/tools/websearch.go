package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const webSearchUserAgent = "roundtable-research-agent/1.0"

// WebSearch searches the web via DuckDuckGo. No API key is required.
type WebSearch struct {
	ddg *duckduckgo.Tool
}

// NewWebSearch creates a web search tool returning at most maxResults hits.
func NewWebSearch(maxResults int) (*WebSearch, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	ddg, err := duckduckgo.New(maxResults, webSearchUserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create duckduckgo client: %w", err)
	}
	return &WebSearch{ddg: ddg}, nil
}

// Name returns the tool identifier.
func (w *WebSearch) Name() string {
	return "web_search"
}

// Description explains the tool for prompt construction.
func (w *WebSearch) Description() string {
	return "Searches the web for current information. Input is a search query; output is a list of result titles, links and snippets."
}

// Call runs the search.
func (w *WebSearch) Call(ctx context.Context, input string) (string, error) {
	return w.ddg.Call(ctx, input)
}
