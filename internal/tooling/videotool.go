package tooling

import (
	"context"
	"fmt"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

// videoBaseCostUSD is the average cost of a clip at the reference
// duration; actual cost scales with duration and quality.
const (
	videoBaseCostUSD       = 2.5
	videoRefDurationSec    = 5
	videoFinalMultiplier   = 1.5
	videoPreviewMultiplier = 0.3
)

// VideoGeneration produces a video clip through the configured provider.
type VideoGeneration struct {
	backend provider.Video
}

// NewVideoGeneration returns the generate_video tool.
func NewVideoGeneration(backend provider.Video) *VideoGeneration {
	return &VideoGeneration{backend: backend}
}

func (*VideoGeneration) Name() string { return "generate_video" }

func (*VideoGeneration) Description() string {
	return "Generates video from a text prompt using the configured provider."
}

func (*VideoGeneration) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Text description of the video to generate.",
			},
			"duration_seconds": map[string]any{
				"type":        "integer",
				"description": "Duration in seconds (default 5).",
				"default":     5,
			},
			"aspect_ratio": map[string]any{
				"type":        "string",
				"description": "Aspect ratio (e.g. '16:9', '9:16').",
				"default":     "16:9",
			},
			"quality": map[string]any{
				"type":    "string",
				"enum":    []string{"preview", "final"},
				"default": "preview",
			},
		},
		"required": []string{"prompt"},
	}
}

func (t *VideoGeneration) Run(ctx context.Context, input map[string]any) (*Result, error) {
	prompt, ok := input["prompt"].(string)
	if !ok || prompt == "" {
		return nil, fmt.Errorf("generate_video requires 'prompt' string input")
	}

	duration := intInput(input, "duration_seconds", videoRefDurationSec)
	aspectRatio, _ := input["aspect_ratio"].(string)
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}
	quality, _ := input["quality"].(string)
	if quality == "" {
		quality = "preview"
	}

	res, err := t.backend.Generate(ctx, provider.VideoRequest{
		Prompt:          prompt,
		DurationSeconds: duration,
		AspectRatio:     aspectRatio,
		Quality:         quality,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output: map[string]any{
			"video_url": res.VideoURL,
			"status":    res.Status,
			"job_id":    res.JobID,
		},
		CostUSD:  VideoCost(duration, quality),
		Metadata: map[string]any{"provider": t.backend.Name()},
	}, nil
}

// VideoCost estimates the cost of one clip from its duration and quality.
func VideoCost(durationSeconds int, quality string) float64 {
	multiplier := videoPreviewMultiplier
	if quality == "final" {
		multiplier = videoFinalMultiplier
	}
	return videoBaseCostUSD * (float64(durationSeconds) / videoRefDurationSec) * multiplier
}

// intInput reads an integer field that may arrive as float64 from JSON.
func intInput(input map[string]any, key string, fallback int) int {
	switch v := input[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
