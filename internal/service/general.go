package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sotel "github.com/nexgenlabs/studio/internal/adapter/otel"
	"github.com/nexgenlabs/studio/internal/agents"
	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/port/repository"
	"github.com/nexgenlabs/studio/internal/port/storage"
	"github.com/nexgenlabs/studio/internal/tooling"
)

// GeneralOrchestratorOptions bundles the collaborators of the general
// mode driver.
type GeneralOrchestratorOptions struct {
	Repo      repository.GeneralStore
	Runtime   *tooling.Runtime
	Agents    *agents.Pool
	Artifacts storage.ArtifactStore
	Ledger    *CostLedger
	Monitor   *CostMonitor
	Emitter   event.Emitter
	Logger    *slog.Logger

	MemoryWindow         int
	CompressionThreshold int
}

// GeneralOrchestrator manages ReAct sessions: guardrail pre-checks,
// loop delegation, tool call recording, and best-effort memory upkeep.
type GeneralOrchestrator struct {
	repo      repository.GeneralStore
	runtime   *tooling.Runtime
	agents    *agents.Pool
	artifacts storage.ArtifactStore
	ledger    *CostLedger
	monitor   *CostMonitor
	emitter   event.Emitter
	log       *slog.Logger
	locks     *keyLock

	memoryWindow         int
	compressionThreshold int
}

// NewGeneralOrchestrator wires the driver. The compression threshold is
// clamped above the memory window so compression always preserves the
// window.
func NewGeneralOrchestrator(opts GeneralOrchestratorOptions) *GeneralOrchestrator {
	emitter := opts.Emitter
	if emitter == nil {
		emitter = event.Nop()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	window := opts.MemoryWindow
	if window < 1 {
		window = 1
	}
	threshold := opts.CompressionThreshold
	if threshold < window+1 {
		threshold = window + 1
	}
	return &GeneralOrchestrator{
		repo:                 opts.Repo,
		runtime:              opts.Runtime,
		agents:               opts.Agents,
		artifacts:            opts.Artifacts,
		ledger:               opts.Ledger,
		monitor:              opts.Monitor,
		emitter:              emitter,
		log:                  log,
		locks:                newKeyLock(),
		memoryWindow:         window,
		compressionThreshold: threshold,
	}
}

// CreateSession registers a new session with the goal on the transcript.
func (o *GeneralOrchestrator) CreateSession(ctx context.Context, req *general.CreateRequest) (*general.Session, error) {
	session, err := o.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	o.ledger.EnsureEnvelope(session.ID, session.BudgetLimitUSD)
	session.Messages = append(session.Messages, "Goal registered: "+session.Goal)
	return o.repo.Upsert(ctx, session)
}

// Get returns a session by id.
func (o *GeneralOrchestrator) Get(ctx context.Context, id string) (*general.Session, error) {
	return o.repo.Get(ctx, id)
}

// List returns the tenant's sessions ordered by creation time.
func (o *GeneralOrchestrator) List(ctx context.Context, tenantID string) ([]general.Session, error) {
	return o.repo.ListForTenant(ctx, tenantID)
}

// RunIteration runs the ReAct loop for the session, bounded by its
// remaining steps. prompt, when non-empty, replaces the goal for this
// run. A guardrail trip pauses the session; an ordinary loop failure
// fails it; completion stores the final answer as the summary.
func (o *GeneralOrchestrator) RunIteration(ctx context.Context, id, prompt string) (*general.Session, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	session, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.State != general.StateActive {
		return nil, fmt.Errorf("run iteration in state %s: %w", session.State, general.ErrNotActive)
	}

	if !o.canContinue(ctx, session) {
		return o.persistBestEffort(ctx, session), nil
	}

	if prompt != "" {
		session.Goal = prompt
		session.Messages = append(session.Messages, "User: "+prompt)
	}

	remaining := session.MaxIterations - session.Iteration
	if remaining < 1 {
		remaining = 1
	}
	recorder := &recordingRuntime{
		inner:   o.runtime,
		session: session,
		ledger:  o.ledger,
		monitor: o.monitor,
		emitter: o.emitter,
	}

	answer, loopErr := o.agents.General.ReactLoop(ctx, session.Goal, recorder, remaining)
	switch {
	case loopErr == nil:
		session.Summary = answer
		session.Messages = append(session.Messages, "Final Answer: "+answer)
		session.MarkState(general.StateCompleted)
		o.emitter.Emit(ctx, event.New(event.NameSessionCompleted, map[string]any{
			"session_id": session.ID,
			"iterations": session.Iteration,
			"spent_usd":  session.SpentUSD,
		}))

	default:
		if g, ok := general.AsInterrupt(loopErr); ok {
			// The guardrail already stamped the pause details; just
			// settle the state and report.
			session.PauseReason = g.Reason
			session.MarkState(general.StatePaused)
			o.emitter.Emit(ctx, event.New(event.NameSessionPaused, map[string]any{
				"session_id": session.ID,
				"reason":     g.Reason,
			}))
			break
		}
		o.log.ErrorContext(ctx, "react loop failed",
			slog.String("session_id", session.ID), slog.String("error", loopErr.Error()))
		session.Messages = append(session.Messages, "Error: "+loopErr.Error())
		session.MarkState(general.StateFailed)
		o.emitter.Emit(ctx, event.New(event.NameSessionError, map[string]any{
			"session_id": session.ID,
			"error":      loopErr.Error(),
		}))
	}

	o.maybeStoreMemory(ctx, session)
	o.maybeCompressHistory(ctx, session)
	return o.persistBestEffort(ctx, session), nil
}

// canContinue is the guardrail pre-check before any capability call.
// A trip stamps the pause on the session and returns false.
func (o *GeneralOrchestrator) canContinue(ctx context.Context, s *general.Session) bool {
	if !s.AutoPauseEnabled {
		return true
	}
	if s.Iteration >= s.MaxIterations {
		s.PauseReason = fmt.Sprintf("Reached max iterations (%d)", s.MaxIterations)
		s.Messages = append(s.Messages, s.PauseReason)
		s.MarkState(general.StatePaused)
		o.emitter.Emit(ctx, event.New(event.NameGuardrailTriggered, map[string]any{
			"session_id": s.ID,
			"reason":     general.ReasonMaxIterations,
		}))
		return false
	}
	if s.SpentUSD >= s.BudgetLimitUSD {
		s.PauseReason = fmt.Sprintf("Budget limit hit ($%.2f)", s.BudgetLimitUSD)
		s.Messages = append(s.Messages, s.PauseReason)
		s.MarkState(general.StatePaused)
		o.emitter.Emit(ctx, event.New(event.NameGuardrailTriggered, map[string]any{
			"session_id": s.ID,
			"reason":     general.ReasonBudgetExceeded,
		}))
		return false
	}
	return true
}

// persistBestEffort upserts the session, falling back to the in-memory
// copy so the caller still sees the outcome when persistence fails.
func (o *GeneralOrchestrator) persistBestEffort(ctx context.Context, s *general.Session) *general.Session {
	stored, err := o.repo.Upsert(ctx, s)
	if err != nil {
		o.log.ErrorContext(ctx, "session persist failed",
			slog.String("session_id", s.ID), slog.String("error", err.Error()))
		return s
	}
	return stored
}

// maybeStoreMemory saves the recent transcript window as a memory
// artifact. Best-effort: failures are reported as telemetry only.
func (o *GeneralOrchestrator) maybeStoreMemory(ctx context.Context, s *general.Session) {
	if len(s.Messages) == 0 {
		return
	}
	start := len(s.Messages) - o.memoryWindow
	if start < 0 {
		start = 0
	}
	record := map[string]any{
		"snippet":   strings.Join(s.Messages[start:], "\n"),
		"tenant_id": s.TenantID,
		"goal":      s.Goal,
		"iteration": s.Iteration,
		"state":     string(s.State),
	}
	path := fmt.Sprintf("%s/memory/iteration-%d.json", s.ID, s.Iteration)
	if _, err := o.artifacts.SaveJSON(ctx, path, record); err != nil {
		o.emitter.Emit(ctx, event.New(event.NameMemoryError, map[string]any{
			"session_id": s.ID,
			"error":      err.Error(),
		}))
	}
}

// maybeCompressHistory replaces all but the most recent window of the
// transcript with a single summarized entry once it grows past the
// threshold. Best-effort: a summarizer failure leaves the transcript
// untouched.
func (o *GeneralOrchestrator) maybeCompressHistory(ctx context.Context, s *general.Session) {
	if len(s.Messages) <= o.compressionThreshold {
		return
	}
	preserved := s.Messages[len(s.Messages)-o.memoryWindow:]
	older := strings.Join(s.Messages[:len(s.Messages)-o.memoryWindow], "\n")

	summary, err := o.agents.Formatter.Summarize(ctx, older)
	if err != nil {
		o.emitter.Emit(ctx, event.New(event.NameCompressionError, map[string]any{
			"session_id": s.ID,
			"error":      err.Error(),
		}))
		return
	}

	compressed := make([]string, 0, o.memoryWindow+1)
	compressed = append(compressed, "[History summary]\n"+strings.TrimSpace(summary))
	compressed = append(compressed, preserved...)
	s.Messages = compressed
}

// recordingRuntime wraps the tool runtime for one loop run: it checks
// guardrails before and after every call, accumulates iteration count
// and spend on the session, and appends the audit record. Guardrail
// interrupts always surface unwrapped; ordinary tool failures are
// recorded and then returned for the loop to observe.
type recordingRuntime struct {
	inner   *tooling.Runtime
	session *general.Session
	ledger  *CostLedger
	monitor *CostMonitor
	emitter event.Emitter
}

func (r *recordingRuntime) Tools() []tooling.Tool { return r.inner.Tools() }

func (r *recordingRuntime) Execute(ctx context.Context, req tooling.Request) (*tooling.Result, error) {
	if err := r.ensureGuardrails(); err != nil {
		return nil, err
	}

	r.emitter.Emit(ctx, event.New(event.NameIterationStart, map[string]any{
		"session_id": r.session.ID,
		"tool":       req.Name,
	}))

	spanCtx, span := sotel.StartToolCallSpan(ctx, r.session.ID, req.Name)
	result, execErr := r.inner.Execute(spanCtx, req)
	span.End()
	if execErr != nil {
		if _, ok := general.AsInterrupt(execErr); ok {
			return nil, execErr
		}
		r.emitter.Emit(ctx, event.New(event.NameToolError, map[string]any{
			"session_id": r.session.ID,
			"tool":       req.Name,
			"error":      execErr.Error(),
		}))
	}

	var output map[string]any
	var amount float64
	if execErr != nil {
		output = map[string]any{"error": execErr.Error()}
	} else {
		output = result.Output
		amount = result.CostUSD
	}

	s := r.session
	s.SpentUSD += amount
	s.Iteration++
	r.ledger.Record(ctx, s.ID, amount)
	r.monitor.RecordSnapshot(s.ID, cost.EntitySession, s.SpentUSD, req.Name, s.BudgetLimitUSD)

	s.ToolCalls = append(s.ToolCalls, general.ToolCallRecord{
		Step:         s.Iteration,
		Tool:         req.Name,
		Arguments:    req.Input,
		Output:       output,
		CostUSD:      amount,
		DecisionPath: "ReAct Agent Action",
		CreatedAt:    nowUTC(),
	})
	s.Messages = append(s.Messages, fmt.Sprintf("Tool: %s\nOutput: %s", req.Name, renderOutput(output)))

	// Cost is realized post-call; the budget may be blown now.
	if err := r.ensureGuardrails(); err != nil {
		return nil, err
	}
	if execErr != nil {
		return nil, execErr
	}
	return result, nil
}

func (r *recordingRuntime) ensureGuardrails() error {
	s := r.session
	if s.State != general.StateActive {
		return general.Interrupt(general.ReasonSessionNotActive, fmt.Sprintf("session is %s", s.State))
	}
	if !s.AutoPauseEnabled {
		return nil
	}
	if s.Iteration >= s.MaxIterations {
		s.PauseReason = fmt.Sprintf("Reached max iterations (%d)", s.MaxIterations)
		s.Messages = append(s.Messages, s.PauseReason)
		s.MarkState(general.StatePaused)
		return general.Interrupt(general.ReasonMaxIterations, s.PauseReason)
	}
	if s.SpentUSD >= s.BudgetLimitUSD {
		s.PauseReason = fmt.Sprintf("Budget limit hit ($%.2f)", s.BudgetLimitUSD)
		s.Messages = append(s.Messages, s.PauseReason)
		s.MarkState(general.StatePaused)
		return general.Interrupt(general.ReasonBudgetExceeded, s.PauseReason)
	}
	return nil
}

// renderOutput flattens a tool output map for the transcript, capped at
// 500 characters.
func renderOutput(output map[string]any) string {
	raw, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	text := string(raw)
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	return text
}
