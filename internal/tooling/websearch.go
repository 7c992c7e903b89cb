package tooling

import (
	"context"
	"fmt"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

const searchCostUSD = 0.01

// WebSearch queries the configured search backend.
type WebSearch struct {
	backend provider.Search
	limit   int
}

// NewWebSearch returns the web_search tool. limit caps results per query.
func NewWebSearch(backend provider.Search, limit int) *WebSearch {
	if limit <= 0 {
		limit = 5
	}
	return &WebSearch{backend: backend, limit: limit}
}

func (*WebSearch) Name() string { return "web_search" }

func (*WebSearch) Description() string {
	return "Queries a web search API and returns summarized results."
}

func (*WebSearch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query string.",
			},
		},
		"required": []string{"query"},
	}
}

func (t *WebSearch) Run(ctx context.Context, input map[string]any) (*Result, error) {
	query, ok := input["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("web_search requires 'query' string input")
	}

	results, err := t.backend.Search(ctx, query, t.limit)
	if err != nil {
		return nil, err
	}

	hits := make([]map[string]any, 0, len(results))
	for _, r := range results {
		hits = append(hits, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}

	return &Result{
		Output:  map[string]any{"query": query, "results": hits},
		CostUSD: searchCostUSD,
	}, nil
}
