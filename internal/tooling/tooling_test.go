package tooling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/port/provider"
)

// stubTool is a controllable tool for runtime tests.
type stubTool struct {
	name string
	run  func(ctx context.Context, input map[string]any) (*Result, error)
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{} }
func (s *stubTool) Run(ctx context.Context, in map[string]any) (*Result, error) {
	return s.run(ctx, in)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingEmitter) Emit(_ context.Context, ev event.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingEmitter) names() []event.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Name, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

func TestExecuteUnknownTool(t *testing.T) {
	rt := NewRuntime(nil)

	_, err := rt.Execute(context.Background(), Request{Name: "nope"})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatal("expected *Error type")
	}
}

func TestExecuteEmitsTelemetry(t *testing.T) {
	emitter := &recordingEmitter{}
	rt := NewRuntime(emitter)
	rt.Register(&stubTool{name: "ok", run: func(context.Context, map[string]any) (*Result, error) {
		return &Result{Output: map[string]any{"v": 1}, CostUSD: 0.02}, nil
	}})

	res, err := rt.Execute(context.Background(), Request{Name: "ok"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CostUSD != 0.02 {
		t.Errorf("unexpected cost %v", res.CostUSD)
	}

	names := emitter.names()
	if len(names) != 2 || names[0] != event.NameToolStart || names[1] != event.NameToolComplete {
		t.Errorf("unexpected event sequence %v", names)
	}
}

func TestExecuteWrapsToolFailure(t *testing.T) {
	rt := NewRuntime(nil)
	rt.Register(&stubTool{name: "boom", run: func(context.Context, map[string]any) (*Result, error) {
		return nil, fmt.Errorf("backend exploded")
	}})

	_, err := rt.Execute(context.Background(), Request{Name: "boom"})
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected wrapped *Error, got %v", err)
	}
	if toolErr.Tool != "boom" {
		t.Errorf("unexpected tool name %q", toolErr.Tool)
	}
}

func TestExecuteGuardrailPassesThroughUnwrapped(t *testing.T) {
	rt := NewRuntime(nil)
	rt.Register(&stubTool{name: "guarded", run: func(context.Context, map[string]any) (*Result, error) {
		return nil, general.Interrupt(general.ReasonBudgetExceeded, "spent 5.20 of 5.00")
	}})

	_, err := rt.Execute(context.Background(), Request{Name: "guarded"})
	g, ok := general.AsInterrupt(err)
	if !ok {
		t.Fatalf("expected guardrail interrupt, got %v", err)
	}
	if g.Reason != general.ReasonBudgetExceeded {
		t.Errorf("unexpected reason %s", g.Reason)
	}
	var toolErr *Error
	if errors.As(err, &toolErr) {
		t.Error("guardrail interrupt must not be wrapped in a tool error")
	}
}

func TestCalculator(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		expr string
		want float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10/4", 2.5},
		{"2^10", 1024},
		{"-3 + 5", 2},
		{"10 % 3", 1},
		{"2^2^3", 256}, // right associative
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res, err := calc.Run(context.Background(), map[string]any{"expression": tt.expr})
			if err != nil {
				t.Fatalf("Run(%q): %v", tt.expr, err)
			}
			if got := res.Output["result"].(float64); got != tt.want {
				t.Errorf("%q = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCalculatorErrors(t *testing.T) {
	calc := NewCalculator()
	for _, expr := range []string{"", "1/0", "2+", "(2+3", "abc"} {
		if _, err := calc.Run(context.Background(), map[string]any{"expression": expr}); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}

// fakeVideo implements provider.Video for tool tests.
type fakeVideo struct{}

func (fakeVideo) Name() string { return "fake" }
func (fakeVideo) Generate(_ context.Context, req provider.VideoRequest) (*provider.VideoResult, error) {
	return &provider.VideoResult{VideoURL: "https://cdn.example.com/x.mp4", Status: "completed", JobID: "j1"}, nil
}

func TestVideoGenerationCostScaling(t *testing.T) {
	tests := []struct {
		duration int
		quality  string
		want     float64
	}{
		{5, "preview", 0.75},
		{5, "final", 3.75},
		{10, "preview", 1.5},
	}
	for _, tt := range tests {
		if got := VideoCost(tt.duration, tt.quality); got != tt.want {
			t.Errorf("VideoCost(%d, %s) = %v, want %v", tt.duration, tt.quality, got, tt.want)
		}
	}
}

func TestVideoGenerationRun(t *testing.T) {
	tool := NewVideoGeneration(fakeVideo{})
	res, err := tool.Run(context.Background(), map[string]any{
		"prompt":           "aerial shot of a coastline",
		"duration_seconds": float64(5), // JSON numbers decode as float64
		"quality":          "final",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output["video_url"] != "https://cdn.example.com/x.mp4" {
		t.Errorf("unexpected output %v", res.Output)
	}
	if res.CostUSD != 3.75 {
		t.Errorf("unexpected cost %v", res.CostUSD)
	}
	if res.Metadata["provider"] != "fake" {
		t.Errorf("unexpected metadata %v", res.Metadata)
	}
}
