package agents

import (
	"context"
	"fmt"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

// FormatterAgent turns finished artifacts into human readable summaries.
type FormatterAgent struct {
	llm provider.LLM
}

func NewFormatterAgent(llm provider.LLM) *FormatterAgent {
	return &FormatterAgent{llm: llm}
}

// Summarize produces a short summary of the given content.
func (a *FormatterAgent) Summarize(ctx context.Context, content string) (string, error) {
	summary, err := a.llm.Complete(ctx, fmt.Sprintf("Summarize the following content:\n%s", content), 0.1)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}
