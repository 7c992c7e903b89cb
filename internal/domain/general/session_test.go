package general

import (
	"errors"
	"fmt"
	"testing"
)

func TestCreateRequestValidateDefaults(t *testing.T) {
	req := &CreateRequest{Goal: "summarize quarterly numbers"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.TenantID != "default" {
		t.Fatalf("tenant = %q, want default", req.TenantID)
	}
	if req.MaxIterations != 6 || req.BudgetLimitUSD != 5 {
		t.Fatalf("defaults not applied: %+v", req)
	}
}

func TestCreateRequestValidateErrors(t *testing.T) {
	if err := (&CreateRequest{}).Validate(); !errors.Is(err, ErrGoalRequired) {
		t.Fatalf("err = %v, want ErrGoalRequired", err)
	}
	bad := &CreateRequest{Goal: "g", BudgetLimitUSD: -0.5}
	if err := bad.Validate(); !errors.Is(err, ErrBudgetInvalid) {
		t.Fatalf("err = %v, want ErrBudgetInvalid", err)
	}
}

func TestAsInterruptThroughWrapping(t *testing.T) {
	base := Interrupt(ReasonBudgetExceeded, "budget limit hit ($5.00)")
	wrapped := fmt.Errorf("execute tool: %w", base)

	g, ok := AsInterrupt(wrapped)
	if !ok {
		t.Fatal("interrupt not recovered from wrapped error")
	}
	if g.Reason != ReasonBudgetExceeded {
		t.Fatalf("reason = %q, want %q", g.Reason, ReasonBudgetExceeded)
	}
	if _, ok := AsInterrupt(errors.New("plain failure")); ok {
		t.Fatal("plain error must not match interrupt")
	}
}

func TestInterruptErrorString(t *testing.T) {
	err := Interrupt(ReasonMaxIterations, "")
	if err.Error() != "guardrail max_iterations" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
