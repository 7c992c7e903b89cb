package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	sotel "github.com/nexgenlabs/studio/internal/adapter/otel"
	"github.com/nexgenlabs/studio/internal/agents"
	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/port/provider"
)

// Per-stage cost charges in USD.
const (
	costBrief        = 0.02
	costScript       = 0.05
	costStoryboard   = 0.08
	costShots        = 2.50
	costRender       = 0.50
	costPreview      = 0.10
	costValidation   = 0.05
	costDistribution = 0.05
)

func nowUTC() time.Time { return time.Now().UTC() }

// stageAttrs builds the common attribute set for stage completion events.
func stageAttrs(projectID string, costUSD float64, start time.Time) map[string]any {
	return map[string]any{
		"project_id":  projectID,
		"cost_usd":    costUSD,
		"duration_ms": time.Since(start).Milliseconds(),
	}
}

func (o *CreativeOrchestrator) stageBrief(ctx context.Context, p *creative.Project) error {
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameBriefStart, map[string]any{"project_id": p.ID}))

	expansion, err := o.agents.Planning.ExpandBrief(ctx, p.Brief, "creative")
	if err != nil {
		return fmt.Errorf("expand brief: %w", err)
	}
	p.Summary = expansion.Summary
	p.MarkState(creative.StateScriptPending)
	o.saveArtifact(ctx, p.ID+"/brief_expansion.json", expansion)

	o.emitter.Emit(ctx, event.New(event.NameBriefComplete, stageAttrs(p.ID, costBrief, start)))
	o.recordCostGuardrail(ctx, p, costBrief, "brief")
	return nil
}

func (o *CreativeOrchestrator) stageScript(ctx context.Context, p *creative.Project) error {
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameScriptStart, map[string]any{"project_id": p.ID}))

	script, err := o.agents.Creative.WriteScript(ctx, p.Brief, p.DurationSeconds, p.Style)
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	p.Script = script
	if _, err := o.artifacts.SaveText(ctx, p.ID+"/script.txt", script); err != nil {
		o.log.WarnContext(ctx, "script artifact save failed",
			slog.String("project_id", p.ID), slog.String("error", err.Error()))
	}

	o.emitter.Emit(ctx, event.New(event.NameScriptComplete, stageAttrs(p.ID, costScript, start)))
	if paused := o.recordCostGuardrail(ctx, p, costScript, "script"); !paused {
		p.MarkState(creative.StateScriptReview)
	}
	return nil
}

func (o *CreativeOrchestrator) stageStoryboard(ctx context.Context, p *creative.Project) error {
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameStoryboardStart, map[string]any{"project_id": p.ID}))

	scenes, err := o.agents.Creative.SplitScript(ctx, p.Script, p.DurationSeconds)
	if err != nil {
		return fmt.Errorf("split script: %w", err)
	}

	// Panels are independent; generate them concurrently and join in
	// scene-number order regardless of completion order.
	panels := make([]creative.StoryboardPanel, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	for i, scene := range scenes {
		i, scene := i, scene
		g.Go(func() error {
			panel, err := o.generatePanel(gctx, i+1, scene)
			if err != nil {
				return err
			}
			panels[i] = panel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate storyboard: %w", err)
	}
	creative.SortPanels(panels)
	p.Storyboard = panels
	o.saveArtifact(ctx, p.ID+"/storyboard.json", panels)

	o.emitter.Emit(ctx, event.New(event.NameStoryboardComplete, stageAttrs(p.ID, costStoryboard, start)))
	if paused := o.recordCostGuardrail(ctx, p, costStoryboard, "storyboard"); !paused {
		p.MarkState(creative.StateStoryboardReady)
	}
	return nil
}

func (o *CreativeOrchestrator) generatePanel(ctx context.Context, sceneNumber int, scene agents.Scene) (creative.StoryboardPanel, error) {
	evaluation, err := o.agents.Quality.Evaluate(ctx,
		fmt.Sprintf("%s (Visuals: %s)", scene.Description, scene.VisualCues),
		[]string{"composition", "clarity"})
	if err != nil {
		return creative.StoryboardPanel{}, fmt.Errorf("evaluate panel %d: %w", sceneNumber, err)
	}
	visualURL, err := o.agents.Creative.GeneratePanelVisual(ctx, scene.Description)
	if err != nil {
		return creative.StoryboardPanel{}, fmt.Errorf("panel visual %d: %w", sceneNumber, err)
	}

	cameraNotes := scene.VisualCues
	if cameraNotes == "" {
		cameraNotes = "Auto-generated shot"
	}
	duration := scene.EstimatedDuration
	if duration <= 0 {
		duration = 5
	}
	return creative.StoryboardPanel{
		SceneNumber:         sceneNumber,
		Description:         scene.Description,
		DurationSeconds:     duration,
		CameraNotes:         cameraNotes,
		VisualReferencePath: visualURL,
		QualityScore:        evaluation.Score,
		Status:              creative.PanelDraft,
	}, nil
}

func (o *CreativeOrchestrator) stageShots(ctx context.Context, p *creative.Project) error {
	if len(p.Storyboard) == 0 {
		return fmt.Errorf("generate shots: storyboard is empty")
	}
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameShotsStart, map[string]any{"project_id": p.ID}))

	ctx, span := sotel.StartRenderSpan(ctx, p.ID, len(p.Storyboard))
	defer span.End()

	var shots []creative.ShotAsset
	if o.sequential {
		shots = o.generateShotsSequential(ctx, p)
	} else {
		shots = make([]creative.ShotAsset, len(p.Storyboard))
		g, gctx := errgroup.WithContext(ctx)
		for i, panel := range p.Storyboard {
			i, panel := i, panel
			g.Go(func() error {
				shots[i] = o.generateShot(gctx, p, panel, "")
				return nil
			})
		}
		// Individual shot failures are folded into the asset status, so
		// the join itself cannot fail.
		_ = g.Wait()
	}

	p.Shots = shots
	o.saveArtifact(ctx, p.ID+"/shots.json", shots)
	p.MarkState(creative.StateRenderPending)

	o.emitter.Emit(ctx, event.New(event.NameShotsComplete, stageAttrs(p.ID, costShots, start)))
	o.recordCostGuardrail(ctx, p, costShots, "shots")
	return nil
}

// generateShotsSequential produces shots one scene at a time, feeding
// the previous scene description into each prompt for continuity.
func (o *CreativeOrchestrator) generateShotsSequential(ctx context.Context, p *creative.Project) []creative.ShotAsset {
	shots := make([]creative.ShotAsset, 0, len(p.Storyboard))
	for i, panel := range p.Storyboard {
		previous := ""
		if i > 0 {
			previous = p.Storyboard[i-1].Description
		}
		o.log.InfoContext(ctx, "sequential shot generation",
			slog.String("project_id", p.ID),
			slog.Int("scene", panel.SceneNumber),
			slog.Int("total", len(p.Storyboard)))
		shots = append(shots, o.generateShot(ctx, p, panel, previous))
	}
	return shots
}

func (o *CreativeOrchestrator) generateShot(ctx context.Context, p *creative.Project, panel creative.StoryboardPanel, previousScene string) creative.ShotAsset {
	prompt := fmt.Sprintf("%s style scene %d: %s. Camera notes: %s. Duration %ds.",
		p.Style, panel.SceneNumber, panel.Description, panel.CameraNotes, panel.DurationSeconds)
	if previousScene != "" {
		prompt += fmt.Sprintf(" Continues directly from the previous scene: %s.", previousScene)
	}

	result, err := o.video.Generate(ctx, provider.VideoRequest{
		Prompt:          prompt,
		DurationSeconds: panel.DurationSeconds,
		AspectRatio:     p.AspectRatio,
		Quality:         "preview",
		ReferenceImage:  panel.VisualReferencePath,
	})
	if err != nil {
		return creative.ShotAsset{
			SceneNumber:  panel.SceneNumber,
			Prompt:       prompt,
			Provider:     o.video.Name(),
			Status:       creative.ShotFailed,
			ErrorMessage: err.Error(),
		}
	}

	assetPath := ""
	payload := map[string]any{"panel": panel, "provider_result": result}
	if loc, saveErr := o.artifacts.SaveJSON(ctx, fmt.Sprintf("%s/shots/scene-%d.json", p.ID, panel.SceneNumber), payload); saveErr == nil {
		assetPath = loc
	}

	status := creative.ShotCompleted
	if result.Status != "" && result.Status != "completed" {
		status = creative.ShotStatus(result.Status)
	}
	return creative.ShotAsset{
		SceneNumber: panel.SceneNumber,
		Prompt:      prompt,
		Provider:    o.video.Name(),
		JobID:       result.JobID,
		VideoURL:    result.VideoURL,
		AssetPath:   assetPath,
		Status:      status,
		Metadata:    result.Metadata,
	}
}

func (o *CreativeOrchestrator) stageRender(ctx context.Context, p *creative.Project) error {
	if len(p.Shots) == 0 {
		return fmt.Errorf("render master: no shots")
	}
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameRenderStart, map[string]any{"project_id": p.ID}))

	manifestPayload := map[string]any{
		"project_id":       p.ID,
		"tenant_id":        p.TenantID,
		"shot_count":       len(p.Shots),
		"shots":            p.Shots,
		"duration_seconds": p.DurationSeconds,
	}
	masterPath, err := o.artifacts.SaveJSON(ctx, p.ID+"/render_manifest.json", manifestPayload)
	if err != nil {
		return fmt.Errorf("save render manifest: %w", err)
	}

	sources := make([]string, 0, len(p.Shots))
	allCompleted := true
	for _, shot := range p.Shots {
		src := shot.VideoURL
		if src == "" {
			src = shot.AssetPath
		}
		sources = append(sources, src)
		if shot.Status != creative.ShotCompleted {
			allCompleted = false
		}
	}
	status := "assembling"
	if allCompleted {
		status = "ready"
	}
	p.RenderManifest = &creative.RenderManifest{
		MasterPath:      masterPath,
		DurationSeconds: p.DurationSeconds,
		ShotCount:       len(p.Shots),
		Sources:         sources,
		Status:          status,
	}
	p.MarkState(creative.StatePreviewPending)

	o.emitter.Emit(ctx, event.New(event.NameRenderComplete, stageAttrs(p.ID, costRender, start)))
	o.recordCostGuardrail(ctx, p, costRender, "render")
	return nil
}

func (o *CreativeOrchestrator) stagePreview(ctx context.Context, p *creative.Project) error {
	if p.RenderManifest == nil {
		return fmt.Errorf("generate preview: render manifest missing")
	}
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NamePreviewStart, map[string]any{"project_id": p.ID}))

	previewContent := map[string]any{
		"project_id": p.ID,
		"shot_count": len(p.Shots),
		"duration":   p.DurationSeconds,
		"shots":      p.Shots,
	}
	contentJSON, err := json.MarshalIndent(previewContent, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preview content: %w", err)
	}

	qc, err := o.agents.Quality.RunQCWorkflow(ctx, string(contentJSON), "preview", -1)
	if err != nil {
		return fmt.Errorf("preview qc: %w", err)
	}

	previewPath := ""
	if loc, saveErr := o.artifacts.SaveJSON(ctx, p.ID+"/preview.json", previewContent); saveErr == nil {
		previewPath = loc
	}
	previewURL := ""
	for _, shot := range p.Shots {
		if shot.VideoURL != "" {
			previewURL = shot.VideoURL
			break
		}
	}

	qcStatus := creative.QCNeedsRevision
	if qc.Passed {
		qcStatus = creative.QCApproved
	}
	qcNotes := ""
	if len(qc.Recommendations) > 0 {
		if raw, marshalErr := json.MarshalIndent(qc.Recommendations, "", "  "); marshalErr == nil {
			qcNotes = string(raw)
		}
	}
	p.PreviewRecord = &creative.PreviewRecord{
		PreviewURL:   previewURL,
		PreviewPath:  previewPath,
		QualityScore: qc.OverallScore,
		QCStatus:     qcStatus,
		QCNotes:      qcNotes,
		CreatedAt:    nowUTC(),
	}
	// Either way the project waits in PREVIEW_READY for manual review;
	// the QC verdict lives on the preview record.
	p.MarkState(creative.StatePreviewReady)
	o.saveArtifact(ctx, p.ID+"/preview_qc.json", qc)

	attrs := stageAttrs(p.ID, costPreview, start)
	attrs["qc_passed"] = qc.Passed
	o.emitter.Emit(ctx, event.New(event.NamePreviewComplete, attrs))
	o.recordCostGuardrail(ctx, p, costPreview, "preview")
	return nil
}

func (o *CreativeOrchestrator) stageValidation(ctx context.Context, p *creative.Project) error {
	if p.PreviewRecord == nil {
		return fmt.Errorf("validate: preview record missing")
	}
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameValidationStart, map[string]any{"project_id": p.ID}))

	previewContent := map[string]any{
		"render_manifest": p.RenderManifest,
		"shots":           p.Shots,
	}
	projectContext := map[string]any{
		"project_id":    p.ID,
		"title":         p.Title,
		"style":         p.Style,
		"duration":      p.DurationSeconds,
		"preview_score": p.PreviewRecord.QualityScore,
	}

	verdict, err := o.agents.Quality.ValidatePreview(ctx, previewContent, projectContext)
	if err != nil {
		return fmt.Errorf("validate preview: %w", err)
	}

	checks := make([]map[string]any, 0, len(verdict.Issues))
	for _, issue := range verdict.Issues {
		checks = append(checks, map[string]any{"detail": issue})
	}
	status := "rejected"
	if verdict.Approved {
		status = "approved"
	}
	p.Validation = &creative.ValidationRecord{
		Status:        status,
		Notes:         verdict.Notes,
		QualityChecks: checks,
		ValidatedAt:   nowUTC(),
	}

	if verdict.Approved {
		p.MarkState(creative.StateDistributionPending)
	} else {
		// Rejection loops back for revision; it is never terminal.
		p.MarkState(creative.StatePreviewReady)
		p.PreviewRecord.QCStatus = creative.QCNeedsRevision
		p.PreviewRecord.QCNotes = fmt.Sprintf("Validation failed: %s", verdict.Notes)
	}
	o.saveArtifact(ctx, p.ID+"/validation.json", verdict)

	attrs := stageAttrs(p.ID, costValidation, start)
	attrs["approved"] = verdict.Approved
	o.emitter.Emit(ctx, event.New(event.NameValidationComplete, attrs))
	o.recordCostGuardrail(ctx, p, costValidation, "validation")
	return nil
}

func (o *CreativeOrchestrator) stageDistribution(ctx context.Context, p *creative.Project) error {
	if p.RenderManifest == nil {
		return fmt.Errorf("distribute: render manifest missing")
	}
	start := time.Now()
	o.emitter.Emit(ctx, event.New(event.NameDistributionStart, map[string]any{"project_id": p.ID}))

	now := nowUTC()
	p.DistributionLog = []creative.DistributionRecord{
		{
			Channel:   "storage",
			Status:    "completed",
			Details:   map[string]any{"artifact_path": p.RenderManifest.MasterPath},
			Timestamp: now,
		},
		{
			Channel:   "webhook",
			Status:    "completed",
			Details:   map[string]any{"project_id": p.ID, "shot_count": p.RenderManifest.ShotCount},
			Timestamp: now,
		},
	}
	o.saveArtifact(ctx, p.ID+"/distribution_log.json", p.DistributionLog)
	p.MarkState(creative.StateCompleted)

	o.emitter.Emit(ctx, event.New(event.NameDistributionComplete, stageAttrs(p.ID, costDistribution, start)))
	o.recordCostGuardrail(ctx, p, costDistribution, "distribution")
	return nil
}

// recordCostGuardrail charges the stage cost, records the snapshot,
// runs anomaly checks, and pauses the project when the monitor says so.
// It runs after the stage's field writes, so a pause keeps all work
// produced by the stage that tripped it. Returns true when paused.
func (o *CreativeOrchestrator) recordCostGuardrail(ctx context.Context, p *creative.Project, amount float64, phase string) bool {
	p.CostUSD += amount
	p.UpdatedAt = nowUTC()
	o.ledger.Record(ctx, p.ID, amount)
	o.monitor.RecordSnapshot(p.ID, cost.EntityProject, p.CostUSD, phase, p.BudgetLimitUSD)
	o.monitor.CheckForAnomalies(ctx, p.ID, cost.EntityProject, p.BudgetLimitUSD, p.CompletionEstimate())

	paused, reason := o.monitor.ShouldPause(p.ID, p.BudgetLimitUSD, p.AutoPauseEnabled)
	if !paused {
		return false
	}
	if err := p.Pause(reason); err != nil {
		return false
	}
	o.emitter.Emit(ctx, event.New(event.NameProjectPaused, map[string]any{
		"project_id": p.ID,
		"reason":     reason,
	}))
	return true
}

// saveArtifact persists a stage artifact best-effort; failures are
// logged and never interrupt the pipeline.
func (o *CreativeOrchestrator) saveArtifact(ctx context.Context, path string, data any) {
	if _, err := o.artifacts.SaveJSON(ctx, path, data); err != nil {
		o.log.WarnContext(ctx, "artifact save failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
}
