package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const searchToolName = "web_search"

// Searcher is satisfied by langchaingo search tools.
type Searcher interface {
	Call(ctx context.Context, input string) (string, error)
}

// SearchTool answers free-text queries from a web search backend.
type SearchTool struct {
	client Searcher
}

// NewSearchTool searches DuckDuckGo, keeping at most maxResults hits.
func NewSearchTool(maxResults int) (*SearchTool, error) {
	ddg, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return NewSearchToolWith(ddg), nil
}

func NewSearchToolWith(client Searcher) *SearchTool {
	return &SearchTool{client: client}
}

func (s *SearchTool) Name() string { return searchToolName }

func (s *SearchTool) Description() string {
	return "Search the web and return result titles, links and snippets for a query."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text search query",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Invoke(ctx context.Context, input string) Result {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Fail(ErrInvalidInput, fmt.Sprintf("invalid input: %v", err))
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return Fail(ErrMissingParameter, "query is required")
	}

	hits, err := s.client.Call(ctx, query)
	if err != nil {
		return Fail(ErrUpstream, fmt.Sprintf("search failed: %v", err))
	}
	return Ok(hits)
}
