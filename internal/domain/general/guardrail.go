package general

import (
	"errors"
	"fmt"
)

// Guardrail interrupt reasons.
const (
	ReasonMaxIterations    = "max_iterations"
	ReasonBudgetExceeded   = "budget_exceeded"
	ReasonSessionNotActive = "session_not_active"
	ReasonPausedBudget     = "paused_budget"
	ReasonPausedAnomaly    = "paused_anomaly"
)

// GuardrailInterrupt is the typed error carried up the call chain when a
// budget or iteration guardrail stops execution. It is a controlled
// suspension, not a failure: orchestrators convert it into a PAUSED state.
// Every layer between the tool-invocation wrapper and the orchestrator must
// propagate it unmodified; wrapping it in a generic error loses the pause
// semantics and is a bug.
type GuardrailInterrupt struct {
	Reason string
	Detail string
}

// Error implements the error interface.
func (g *GuardrailInterrupt) Error() string {
	if g.Detail != "" {
		return fmt.Sprintf("guardrail %s: %s", g.Reason, g.Detail)
	}
	return "guardrail " + g.Reason
}

// Interrupt builds a GuardrailInterrupt error.
func Interrupt(reason, detail string) error {
	return &GuardrailInterrupt{Reason: reason, Detail: detail}
}

// AsInterrupt extracts a GuardrailInterrupt from an error chain.
func AsInterrupt(err error) (*GuardrailInterrupt, bool) {
	var g *GuardrailInterrupt
	if errors.As(err, &g) {
		return g, true
	}
	return nil, false
}
