package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sotel "github.com/nexgenlabs/studio/internal/adapter/otel"
	"github.com/nexgenlabs/studio/internal/agents"
	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/port/provider"
	"github.com/nexgenlabs/studio/internal/port/repository"
	"github.com/nexgenlabs/studio/internal/port/storage"
)

// ErrInvalidTransition marks a manual edge invoked from the wrong state.
var ErrInvalidTransition = errors.New("invalid state transition")

// CreativeOrchestratorOptions bundles the collaborators of the creative
// pipeline.
type CreativeOrchestratorOptions struct {
	Repo      repository.CreativeStore
	Artifacts storage.ArtifactStore
	Agents    *agents.Pool
	Video     provider.Video
	Ledger    *CostLedger
	Monitor   *CostMonitor
	Emitter   event.Emitter
	Logger    *slog.Logger

	// SequentialShots generates video shots one scene at a time with
	// continuity hints instead of fanning out concurrently.
	SequentialShots bool
}

// CreativeOrchestrator drives a project through the video production
// pipeline. Every stage records its cost through the guardrail, so any
// stage can leave the project paused instead of advanced.
type CreativeOrchestrator struct {
	repo       repository.CreativeStore
	artifacts  storage.ArtifactStore
	agents     *agents.Pool
	video      provider.Video
	ledger     *CostLedger
	monitor    *CostMonitor
	emitter    event.Emitter
	log        *slog.Logger
	locks      *keyLock
	sequential bool

	stages map[creative.State]func(ctx context.Context, p *creative.Project) error
}

// NewCreativeOrchestrator wires the pipeline and its stage dispatch table.
func NewCreativeOrchestrator(opts CreativeOrchestratorOptions) *CreativeOrchestrator {
	emitter := opts.Emitter
	if emitter == nil {
		emitter = event.Nop()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	o := &CreativeOrchestrator{
		repo:       opts.Repo,
		artifacts:  opts.Artifacts,
		agents:     opts.Agents,
		video:      opts.Video,
		ledger:     opts.Ledger,
		monitor:    opts.Monitor,
		emitter:    emitter,
		log:        log,
		locks:      newKeyLock(),
		sequential: opts.SequentialShots,
	}
	o.stages = map[creative.State]func(context.Context, *creative.Project) error{
		creative.StateBriefPending:  o.stageBrief,
		creative.StateScriptPending: o.stageScript,
		creative.StateScriptReview: func(ctx context.Context, p *creative.Project) error {
			// Advancing out of review implies approval.
			p.MarkState(creative.StateStoryboardPending)
			return o.stageStoryboard(ctx, p)
		},
		creative.StateStoryboardPending:   o.stageStoryboard,
		creative.StateStoryboardReady:     o.stageShots,
		creative.StateRenderPending:       o.stageRender,
		creative.StatePreviewPending:      o.stagePreview,
		creative.StateValidationPending:   o.stageValidation,
		creative.StateDistributionPending: o.stageDistribution,
	}
	return o
}

// CreateProject creates a project and immediately runs the brief and
// script stages, so the caller lands on SCRIPT_REVIEW or PAUSED.
func (o *CreativeOrchestrator) CreateProject(ctx context.Context, req *creative.CreateRequest) (*creative.Project, error) {
	project, err := o.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	o.ledger.EnsureEnvelope(project.ID, project.BudgetLimitUSD)

	if err := o.stageBrief(ctx, project); err != nil {
		return nil, o.stageError(ctx, project, err)
	}
	if project.State == creative.StatePaused {
		return o.repo.Upsert(ctx, project)
	}
	if err := o.stageScript(ctx, project); err != nil {
		return nil, o.stageError(ctx, project, err)
	}
	return o.repo.Upsert(ctx, project)
}

// Get returns a project by id.
func (o *CreativeOrchestrator) Get(ctx context.Context, id string) (*creative.Project, error) {
	return o.repo.Get(ctx, id)
}

// List returns the tenant's projects ordered by creation time.
func (o *CreativeOrchestrator) List(ctx context.Context, tenantID string) ([]creative.Project, error) {
	return o.repo.ListForTenant(ctx, tenantID)
}

// Advance runs exactly one automatic stage for the project's current
// state and persists the result. Paused projects and manual-gate states
// (PREVIEW_READY, terminal states) are returned unchanged.
func (o *CreativeOrchestrator) Advance(ctx context.Context, id string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.State == creative.StatePaused {
		return project, nil
	}
	stage, ok := o.stages[project.State]
	if !ok {
		return project, nil
	}

	spanCtx, span := sotel.StartStageSpan(ctx, project.ID, string(project.State))
	err = stage(spanCtx, project)
	span.End()
	if err != nil {
		return nil, o.stageError(ctx, project, err)
	}
	return o.repo.Upsert(ctx, project)
}

// ApproveScript is the manual edge out of SCRIPT_REVIEW. It transitions
// to STORYBOARD_PENDING and immediately runs the storyboard stage, so
// the call lands on STORYBOARD_READY or PAUSED.
func (o *CreativeOrchestrator) ApproveScript(ctx context.Context, id string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.State != creative.StateScriptReview {
		return nil, fmt.Errorf("approve script from %s: %w", project.State, ErrInvalidTransition)
	}

	project.MarkState(creative.StateStoryboardPending)
	if err := o.stageStoryboard(ctx, project); err != nil {
		return nil, o.stageError(ctx, project, err)
	}
	return o.repo.Upsert(ctx, project)
}

// ApprovePreview is the manual edge out of PREVIEW_READY: marks the
// preview approved and moves to VALIDATION_PENDING.
func (o *CreativeOrchestrator) ApprovePreview(ctx context.Context, id string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.State != creative.StatePreviewReady {
		return nil, fmt.Errorf("approve preview from %s: %w", project.State, ErrInvalidTransition)
	}
	if project.PreviewRecord == nil {
		return nil, fmt.Errorf("approve preview: preview record missing")
	}

	now := nowUTC()
	project.PreviewRecord.QCStatus = creative.QCApproved
	project.PreviewRecord.ReviewedAt = &now
	project.MarkState(creative.StateValidationPending)
	return o.repo.Upsert(ctx, project)
}

// RegenerateStoryboard discards the current panels and re-runs the
// storyboard stage. Valid only while the storyboard is pending or ready.
func (o *CreativeOrchestrator) RegenerateStoryboard(ctx context.Context, id string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.State != creative.StateStoryboardReady && project.State != creative.StateStoryboardPending {
		return nil, fmt.Errorf("regenerate storyboard from %s: %w", project.State, ErrInvalidTransition)
	}
	if project.Script == "" {
		return nil, creative.ErrScriptRequired
	}

	project.Storyboard = nil
	project.MarkState(creative.StateStoryboardPending)
	if err := o.stageStoryboard(ctx, project); err != nil {
		return nil, o.stageError(ctx, project, err)
	}
	return o.repo.Upsert(ctx, project)
}

// Pause manually suspends the project.
func (o *CreativeOrchestrator) Pause(ctx context.Context, id, reason string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "manual"
	}
	if err := project.Pause(reason); err != nil {
		return nil, err
	}
	o.emitter.Emit(ctx, event.New(event.NameProjectPaused, map[string]any{
		"project_id": project.ID,
		"reason":     reason,
	}))
	return o.repo.Upsert(ctx, project)
}

// Resume restores the pre-pause state and clears the monitor's paused
// mark. It does not re-run the interrupted stage; the caller advances
// again to continue.
func (o *CreativeOrchestrator) Resume(ctx context.Context, id string) (*creative.Project, error) {
	unlock := o.locks.Lock(id)
	defer unlock()

	project, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.Resume(); err != nil {
		return nil, err
	}
	o.monitor.ResumeEntity(project.ID)
	o.emitter.Emit(ctx, event.New(event.NameProjectResumed, map[string]any{
		"project_id": project.ID,
		"state":      string(project.State),
	}))
	return o.repo.Upsert(ctx, project)
}

// stageError persists nothing; it emits the workflow error event and
// hands the failure to the caller. The project is deliberately not
// marked FAILED: stage failures have no automatic recovery path and are
// left for operator intervention.
func (o *CreativeOrchestrator) stageError(ctx context.Context, p *creative.Project, err error) error {
	o.emitter.Emit(ctx, event.New(event.NameWorkflowError, map[string]any{
		"project_id": p.ID,
		"error":      err.Error(),
	}))
	return err
}
