// Package provider defines ports for external generation capabilities:
// LLM completion, video generation, and web search.
package provider

import "context"

// Message is one turn of a structured chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a structured completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StructuredResult is the outcome of a structured chat completion.
type StructuredResult struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// CompleteOptions tune a structured completion call.
type CompleteOptions struct {
	Temperature    float64
	MaxTokens      int
	ResponseFormat string // "" or "json_object"
}

// LLM is the port interface for text generation capabilities.
type LLM interface {
	// Complete produces text for a single prompt.
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)

	// StructuredComplete runs a multi-message chat completion.
	StructuredComplete(ctx context.Context, messages []Message, opts CompleteOptions) (*StructuredResult, error)

	// AnalyzeImage describes an image given its URL and an instruction.
	AnalyzeImage(ctx context.Context, imageURL, prompt string) (string, error)
}

// VideoRequest describes one video generation job.
type VideoRequest struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	Quality         string `json:"quality"` // "preview" or "final"
	ReferenceImage  string `json:"reference_image,omitempty"`
	Seed            *int64 `json:"seed,omitempty"`
	CharacterPrompt string `json:"character_prompt,omitempty"`
}

// VideoResult is the outcome of a completed (or failed) video job.
type VideoResult struct {
	VideoURL string         `json:"video_url,omitempty"`
	Status   string         `json:"status"`
	JobID    string         `json:"job_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Video is the port interface for video generation. Generate may be
// long-running; implementations poll the upstream job until completion.
type Video interface {
	Name() string
	Generate(ctx context.Context, req VideoRequest) (*VideoResult, error)
}

// SearchResult is one hit returned by a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Search is the port interface for web search.
type Search interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
