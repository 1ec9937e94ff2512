package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultArxivBaseURL = "http://export.arxiv.org/api/query"

// PaperSearch queries the arXiv Atom API for academic papers.
type PaperSearch struct {
	baseURL    string
	maxResults int
	client     *http.Client
}

// NewPaperSearch creates a paper search tool. An empty baseURL uses the
// public arXiv endpoint.
func NewPaperSearch(baseURL string, maxResults int) *PaperSearch {
	if baseURL == "" {
		baseURL = defaultArxivBaseURL
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &PaperSearch{
		baseURL:    baseURL,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the tool identifier.
func (p *PaperSearch) Name() string {
	return "paper_search"
}

// Description explains the tool for prompt construction.
func (p *PaperSearch) Description() string {
	return "Searches arXiv for academic papers. Input is a search query; output is a numbered list of titles, authors and abstracts."
}

// atomFeed is the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	ID        string       `xml:"id"`
	Authors   []atomAuthor `xml:"author"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// Call runs the search.
func (p *PaperSearch) Call(ctx context.Context, input string) (string, error) {
	q := url.Values{}
	q.Set("search_query", "all:"+input)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", p.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read arxiv response: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fmt.Errorf("failed to parse arxiv response: %w", err)
	}

	if len(feed.Entries) == 0 {
		return "No papers found.", nil
	}

	var b strings.Builder
	for i, entry := range feed.Entries {
		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			authors = append(authors, a.Name)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, collapseWhitespace(entry.Title))
		if len(authors) > 0 {
			fmt.Fprintf(&b, "   Authors: %s\n", strings.Join(authors, ", "))
		}
		if entry.Published != "" {
			fmt.Fprintf(&b, "   Published: %s\n", entry.Published)
		}
		if entry.ID != "" {
			fmt.Fprintf(&b, "   Link: %s\n", entry.ID)
		}
		summary := collapseWhitespace(entry.Summary)
		if len(summary) > 300 {
			summary = summary[:300] + "..."
		}
		fmt.Fprintf(&b, "   Abstract: %s\n", summary)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
