// Package creative defines the CreativeProject entity and its pipeline
// state machine. Projects move through a linear stage sequence from brief
// intake to distribution; PAUSED is a side state reachable from any stage
// and always resumable.
package creative

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTitleRequired  = errors.New("project title is required")
	ErrBriefRequired  = errors.New("project brief is required")
	ErrBudgetInvalid  = errors.New("budget limit must be positive")
	ErrNotPaused      = errors.New("project is not paused")
	ErrAlreadyPaused  = errors.New("project is already paused")
	ErrScriptRequired = errors.New("script is required")
)

// State represents the current pipeline stage of a project.
type State string

const (
	StateBriefPending        State = "brief_pending"
	StateScriptPending       State = "script_pending"
	StateScriptReview        State = "script_review"
	StateStoryboardPending   State = "storyboard_pending"
	StateStoryboardReady     State = "storyboard_ready"
	StateRenderPending       State = "render_pending"
	StatePreviewPending      State = "preview_pending"
	StatePreviewReady        State = "preview_ready"
	StateValidationPending   State = "validation_pending"
	StateDistributionPending State = "distribution_pending"
	StateCompleted           State = "completed"
	StatePaused              State = "paused"
	StateFailed              State = "failed"
)

// Stages lists the automatic pipeline stages in order, used for dispatch
// tables and completion estimation. PAUSED and FAILED are side states and
// are deliberately absent.
func Stages() []State {
	return []State{
		StateBriefPending,
		StateScriptPending,
		StateScriptReview,
		StateStoryboardPending,
		StateStoryboardReady,
		StateRenderPending,
		StatePreviewPending,
		StatePreviewReady,
		StateValidationPending,
		StateDistributionPending,
		StateCompleted,
	}
}

// Terminal reports whether s is a terminal state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Project is a creative-mode video production job. It is mutated exclusively
// by the creative orchestrator; CostUSD is monotonically non-decreasing.
type Project struct {
	ID              string  `json:"id"`
	TenantID        string  `json:"tenant_id"`
	Title           string  `json:"title"`
	Brief           string  `json:"brief"`
	Summary         string  `json:"summary,omitempty"`
	DurationSeconds int     `json:"duration_seconds"`
	Style           string  `json:"style"`
	AspectRatio     string  `json:"aspect_ratio"`
	VideoProvider   string  `json:"video_provider,omitempty"`
	BudgetLimitUSD  float64 `json:"budget_limit_usd"`
	CostUSD         float64 `json:"cost_usd"`

	State         State  `json:"state"`
	PrePauseState State  `json:"pre_pause_state,omitempty"`
	PauseReason   string `json:"pause_reason,omitempty"`

	Script          string               `json:"script,omitempty"`
	Storyboard      []StoryboardPanel    `json:"storyboard,omitempty"`
	Shots           []ShotAsset          `json:"shots,omitempty"`
	RenderManifest  *RenderManifest      `json:"render_manifest,omitempty"`
	PreviewRecord   *PreviewRecord       `json:"preview_record,omitempty"`
	Validation      *ValidationRecord    `json:"validation_record,omitempty"`
	DistributionLog []DistributionRecord `json:"distribution_log,omitempty"`

	ErrorMessage     string     `json:"error_message,omitempty"`
	AutoPauseEnabled bool       `json:"auto_pause_enabled"`
	PausedAt         *time.Time `json:"paused_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MarkState sets the project state and bumps the update timestamp.
func (p *Project) MarkState(s State) {
	p.State = s
	p.UpdatedAt = time.Now().UTC()
}

// Pause suspends the project, remembering the state it was in so a later
// Resume can restore it. Fails if the project is already paused.
func (p *Project) Pause(reason string) error {
	if p.State == StatePaused {
		return ErrAlreadyPaused
	}
	now := time.Now().UTC()
	p.PrePauseState = p.State
	p.PauseReason = reason
	p.PausedAt = &now
	p.MarkState(StatePaused)
	return nil
}

// Resume restores the pre-pause state and clears pause metadata. The caller
// must invoke another advance to continue; resume never re-runs a stage.
func (p *Project) Resume() error {
	if p.State != StatePaused {
		return ErrNotPaused
	}
	restored := p.PrePauseState
	if restored == "" {
		restored = StateBriefPending
	}
	p.PrePauseState = ""
	p.PauseReason = ""
	p.PausedAt = nil
	p.MarkState(restored)
	return nil
}

// CompletionEstimate returns a rough completion fraction in [0,1] for
// anomaly projection, based on position in the stage sequence. A paused
// project is measured at its pre-pause state.
func (p *Project) CompletionEstimate() float64 {
	state := p.State
	if state == StatePaused && p.PrePauseState != "" {
		state = p.PrePauseState
	}
	stages := Stages()
	for i, s := range stages {
		if s == state {
			return float64(i) / float64(len(stages)-1)
		}
	}
	return 1.0
}

// CreateRequest holds the fields needed to create a project.
type CreateRequest struct {
	TenantID         string  `json:"tenant_id"`
	Title            string  `json:"title"`
	Brief            string  `json:"brief"`
	DurationSeconds  int     `json:"duration_seconds"`
	Style            string  `json:"style"`
	AspectRatio      string  `json:"aspect_ratio"`
	BudgetLimitUSD   float64 `json:"budget_limit_usd"`
	AutoPauseEnabled *bool   `json:"auto_pause_enabled,omitempty"`
}

// Validate checks the request and fills defaults.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	if r.Brief == "" {
		return ErrBriefRequired
	}
	if r.BudgetLimitUSD < 0 {
		return fmt.Errorf("budget_limit_usd %v: %w", r.BudgetLimitUSD, ErrBudgetInvalid)
	}
	if r.TenantID == "" {
		r.TenantID = "default"
	}
	if r.DurationSeconds <= 0 {
		r.DurationSeconds = 30
	}
	if r.Style == "" {
		r.Style = "cinematic"
	}
	if r.AspectRatio == "" {
		r.AspectRatio = "16:9"
	}
	if r.BudgetLimitUSD == 0 {
		r.BudgetLimitUSD = 50
	}
	return nil
}
