package agents

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

// Scene is one unit of a split script: what happens and how it looks.
type Scene struct {
	Description       string `json:"description"`
	VisualCues        string `json:"visual_cues"`
	EstimatedDuration int    `json:"estimated_duration"`
}

// CreativeAgent generates scripts, splits them into scenes, and produces
// panel reference visuals.
type CreativeAgent struct {
	llm provider.LLM
}

// NewCreativeAgent creates a creative agent on the given LLM.
func NewCreativeAgent(llm provider.LLM) *CreativeAgent {
	return &CreativeAgent{llm: llm}
}

// WriteScript produces a scene-by-scene script for the brief.
func (a *CreativeAgent) WriteScript(ctx context.Context, brief string, durationSeconds int, style string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a professional screenwriter. Create a compelling scene-by-scene script based on brief below.\n"+
			"Structure output clearly with Scene Headers (e.g., SCENE 1: [LOCATION] - [TIME]), Action Lines, and Dialogue.\n"+
			"Target Duration: %d seconds.\n"+
			"Style: %s.\n"+
			"Brief:\n%s\n\n"+
			"Ensure script is paced well for target duration.",
		durationSeconds, style, brief)

	script, err := a.llm.Complete(ctx, prompt, 0.7)
	if err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return script, nil
}

// SplitScript splits a script into distinct scenes. When the model
// response is not parseable JSON the script is split on blank lines
// instead, so a usable storyboard always comes back.
func (a *CreativeAgent) SplitScript(ctx context.Context, script string, totalDuration int) ([]Scene, error) {
	prompt := fmt.Sprintf(
		"Analyze following script and split it into distinct scenes.\n"+
			"Return a JSON object with a key 'scenes', where each item is an object containing:\n"+
			"- 'description': A concise visual description of action and setting.\n"+
			"- 'visual_cues': Specific camera or lighting notes based on style.\n"+
			"- 'estimated_duration': Estimated duration in seconds (integer).\n\n"+
			"Script:\n%s\n\n"+
			"Ensure total duration roughly matches target. Return ONLY valid JSON.",
		script)

	response, err := a.llm.Complete(ctx, prompt, 0.1)
	if err != nil {
		return nil, fmt.Errorf("split script: %w", err)
	}

	var parsed struct {
		Scenes []Scene `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(response)), &parsed); err == nil && len(parsed.Scenes) > 0 {
		return parsed.Scenes, nil
	}

	return paragraphScenes(script, totalDuration), nil
}

// paragraphScenes is the split fallback: one scene per paragraph with an
// even duration split, floored at 5 seconds.
func paragraphScenes(script string, totalDuration int) []Scene {
	var chunks []string
	for _, c := range strings.Split(script, "\n\n") {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	if len(chunks) == 0 {
		chunks = []string{strings.TrimSpace(script)}
	}

	per := totalDuration / len(chunks)
	if per < 5 {
		per = 5
	}

	scenes := make([]Scene, len(chunks))
	for i, c := range chunks {
		scenes[i] = Scene{
			Description:       c,
			VisualCues:        "Standard shot",
			EstimatedDuration: per,
		}
	}
	return scenes
}

// GeneratePanelVisual returns a reference image URL for a scene
// description. Image generation is an external collaborator; the URL is
// a deterministic placeholder derived from the description so repeated
// runs stay stable.
func (a *CreativeAgent) GeneratePanelVisual(_ context.Context, description string) (string, error) {
	digest := md5.Sum([]byte(description))
	return fmt.Sprintf("https://placehold.co/1024x576/1a1a2e/white?text=Scene+%s",
		hex.EncodeToString(digest[:])[:8]), nil
}

// StripCodeFence removes a leading/trailing markdown code fence from a
// model response, with or without a language tag.
func StripCodeFence(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
