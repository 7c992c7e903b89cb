// Package tooling provides the tool registry and dispatcher used by the
// general-mode ReAct loop. Every side-effecting capability a session can
// spend budget on is a Tool; the Runtime wraps each call with telemetry
// and surfaces a distinguished error type for unknown names and in-tool
// failures. Guardrail interrupts are never wrapped here and always
// propagate unmodified.
package tooling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/domain/general"
)

// ErrUnknownTool is returned for a request naming an unregistered tool.
var ErrUnknownTool = errors.New("unknown tool")

// Request is one tool invocation.
type Request struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Result is the outcome of a tool invocation.
type Result struct {
	Output   map[string]any `json:"output"`
	CostUSD  float64        `json:"cost_usd"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Error marks an ordinary tool execution failure. The ReAct loop
// converts these into observation turns instead of stopping.
type Error struct {
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Tool is one named capability.
type Tool interface {
	Name() string
	Description() string

	// Parameters returns a JSON-schema description of the tool input,
	// suitable for inclusion in an LLM prompt.
	Parameters() map[string]any

	Run(ctx context.Context, input map[string]any) (*Result, error)
}

// Runtime is the tool registry and dispatcher.
type Runtime struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	emitter event.Emitter
}

// NewRuntime creates an empty runtime emitting telemetry to the given sink.
func NewRuntime(emitter event.Emitter) *Runtime {
	if emitter == nil {
		emitter = event.Nop()
	}
	return &Runtime{
		tools:   make(map[string]Tool),
		emitter: emitter,
	}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Runtime) Register(tool Tool) {
	r.mu.Lock()
	r.tools[tool.Name()] = tool
	r.mu.Unlock()
}

// Tools returns the registered tools, for prompt construction.
func (r *Runtime) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Lookup returns the tool registered under name.
func (r *Runtime) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute dispatches a request to its tool, emitting tool.start and
// tool.complete events around the call. Unknown names and tool failures
// come back as *Error; a guardrail interrupt from inside a tool is
// returned as-is.
func (r *Runtime) Execute(ctx context.Context, req Request) (*Result, error) {
	tool, ok := r.Lookup(req.Name)
	if !ok {
		return nil, &Error{Tool: req.Name, Err: ErrUnknownTool}
	}

	r.emitter.Emit(ctx, event.New(event.NameToolStart, map[string]any{
		"tool": req.Name,
	}))

	result, err := tool.Run(ctx, req.Input)
	if err != nil {
		if _, ok := general.AsInterrupt(err); ok {
			return nil, err
		}
		var toolErr *Error
		if errors.As(err, &toolErr) {
			return nil, err
		}
		return nil, &Error{Tool: req.Name, Err: err}
	}

	r.emitter.Emit(ctx, event.New(event.NameToolComplete, map[string]any{
		"tool": req.Name,
		"cost": result.CostUSD,
	}))
	return result, nil
}
