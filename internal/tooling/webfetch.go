package tooling

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	fetchCostUSD  = 0.005
	fetchMaxBytes = 5000
)

// WebFetch retrieves the content of a URL, truncated to a size the
// session transcript can absorb.
type WebFetch struct {
	httpClient *http.Client
}

// NewWebFetch returns the web_fetch tool.
func NewWebFetch() *WebFetch {
	return &WebFetch{
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (*WebFetch) Name() string { return "web_fetch" }

func (*WebFetch) Description() string {
	return "Fetches the content of a URL and returns a truncated text body."
}

func (*WebFetch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to fetch content from.",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetch) Run(ctx context.Context, input map[string]any) (*Result, error) {
	rawURL, ok := input["url"].(string)
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("web_fetch requires 'url' string input")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("web_fetch: unsupported URL scheme in %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return &Result{
		Output:  map[string]any{"url": rawURL, "content": string(body)},
		CostUSD: fetchCostUSD,
	}, nil
}
