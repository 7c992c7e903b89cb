// Package agents holds the LLM-backed capability agents the
// orchestrators delegate to: planning, creative writing, quality
// review, general ReAct reasoning, and output formatting. Agents are
// stateless; all persistence happens in the service layer.
package agents

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

// BriefExpansion is the outcome of expanding a user brief.
type BriefExpansion struct {
	Summary string `json:"summary"`
	Hash    string `json:"hash"`
	Mode    string `json:"mode"`
}

// PlanningAgent turns a short user prompt into a detailed working brief.
type PlanningAgent struct {
	llm provider.LLM
}

// NewPlanningAgent creates a planning agent on the given LLM.
func NewPlanningAgent(llm provider.LLM) *PlanningAgent {
	return &PlanningAgent{llm: llm}
}

// ExpandBrief expands the prompt for the given mode. The hash is a
// short fingerprint of the original prompt, used to correlate artifacts.
func (a *PlanningAgent) ExpandBrief(ctx context.Context, prompt, mode string) (*BriefExpansion, error) {
	summary, err := a.llm.Complete(ctx,
		fmt.Sprintf("Expand the following brief for %s mode:\n%s", mode, prompt), 0.4)
	if err != nil {
		return nil, fmt.Errorf("expand brief: %w", err)
	}

	digest := sha1.Sum([]byte(prompt))
	return &BriefExpansion{
		Summary: summary,
		Hash:    hex.EncodeToString(digest[:])[:8],
		Mode:    mode,
	}, nil
}
