// Package general defines the GeneralSession entity driven by the ReAct
// loop orchestrator, together with the guardrail interrupt that suspends it.
package general

import (
	"errors"
	"time"
)

var (
	ErrGoalRequired  = errors.New("session goal is required")
	ErrBudgetInvalid = errors.New("budget limit must be positive")
	ErrNotActive     = errors.New("session is not active")
)

// State represents the lifecycle state of a session.
type State string

const (
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ToolCallRecord is one entry in the session's tool audit log.
type ToolCallRecord struct {
	Step         int            `json:"step"`
	Tool         string         `json:"tool"`
	Arguments    map[string]any `json:"arguments"`
	Output       map[string]any `json:"output"`
	CostUSD      float64        `json:"cost_usd"`
	DecisionPath string         `json:"decision_path"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session is a general-mode task execution context. The transcript in
// Messages and the ToolCalls audit log are append-only, in invocation order.
type Session struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenant_id"`
	Goal             string           `json:"goal"`
	State            State            `json:"state"`
	MaxIterations    int              `json:"max_iterations"`
	Iteration        int              `json:"iteration"`
	BudgetLimitUSD   float64          `json:"budget_limit_usd"`
	SpentUSD         float64          `json:"spent_usd"`
	AutoPauseEnabled bool             `json:"auto_pause_enabled"`
	PauseReason      string           `json:"pause_reason,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	Messages         []string         `json:"messages,omitempty"`
	ToolCalls        []ToolCallRecord `json:"tool_calls,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MarkState sets the session state and bumps the update timestamp.
func (s *Session) MarkState(state State) {
	s.State = state
	s.UpdatedAt = time.Now().UTC()
}

// CreateRequest holds the fields needed to create a session.
type CreateRequest struct {
	TenantID         string  `json:"tenant_id"`
	Goal             string  `json:"goal"`
	MaxIterations    int     `json:"max_iterations"`
	BudgetLimitUSD   float64 `json:"budget_limit_usd"`
	AutoPauseEnabled *bool   `json:"auto_pause_enabled,omitempty"`
}

// Validate checks the request and fills defaults.
func (r *CreateRequest) Validate() error {
	if r.Goal == "" {
		return ErrGoalRequired
	}
	if r.BudgetLimitUSD < 0 {
		return ErrBudgetInvalid
	}
	if r.TenantID == "" {
		r.TenantID = "default"
	}
	if r.MaxIterations <= 0 {
		r.MaxIterations = 6
	}
	if r.BudgetLimitUSD == 0 {
		r.BudgetLimitUSD = 5
	}
	return nil
}
