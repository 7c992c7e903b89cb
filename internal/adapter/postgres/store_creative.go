package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexgenlabs/studio/internal/domain/creative"
)

const creativeColumns = `id, tenant_id, title, brief, summary, duration_seconds, style, aspect_ratio,
	video_provider, budget_limit_usd, cost_usd, state, pre_pause_state, pause_reason, script,
	storyboard, shots, render_manifest, preview_record, validation_record, distribution_log,
	error_message, auto_pause_enabled, paused_at, created_at, updated_at`

func (s *CreativeStore) Create(ctx context.Context, req *creative.CreateRequest) (*creative.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	autoPause := true
	if req.AutoPauseEnabled != nil {
		autoPause = *req.AutoPauseEnabled
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO creative_projects (tenant_id, title, brief, duration_seconds, style, aspect_ratio, budget_limit_usd, auto_pause_enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+creativeColumns,
		req.TenantID, req.Title, req.Brief, req.DurationSeconds, req.Style, req.AspectRatio, req.BudgetLimitUSD, autoPause)

	p, err := scanCreativeProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *CreativeStore) Get(ctx context.Context, id string) (*creative.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+creativeColumns+` FROM creative_projects WHERE id = $1`, id)

	p, err := scanCreativeProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *CreativeStore) Upsert(ctx context.Context, p *creative.Project) (*creative.Project, error) {
	storyboard, err := json.Marshal(p.Storyboard)
	if err != nil {
		return nil, fmt.Errorf("marshal storyboard: %w", err)
	}
	shots, err := json.Marshal(p.Shots)
	if err != nil {
		return nil, fmt.Errorf("marshal shots: %w", err)
	}
	manifest, err := json.Marshal(p.RenderManifest)
	if err != nil {
		return nil, fmt.Errorf("marshal render manifest: %w", err)
	}
	preview, err := json.Marshal(p.PreviewRecord)
	if err != nil {
		return nil, fmt.Errorf("marshal preview record: %w", err)
	}
	validation, err := json.Marshal(p.Validation)
	if err != nil {
		return nil, fmt.Errorf("marshal validation record: %w", err)
	}
	distribution, err := json.Marshal(p.DistributionLog)
	if err != nil {
		return nil, fmt.Errorf("marshal distribution log: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE creative_projects SET
			title = $2, brief = $3, summary = $4, duration_seconds = $5, style = $6, aspect_ratio = $7,
			video_provider = $8, budget_limit_usd = $9, cost_usd = $10, state = $11, pre_pause_state = $12,
			pause_reason = $13, script = $14, storyboard = $15, shots = $16, render_manifest = $17,
			preview_record = $18, validation_record = $19, distribution_log = $20, error_message = $21,
			auto_pause_enabled = $22, paused_at = $23, updated_at = now()
		 WHERE id = $1
		 RETURNING `+creativeColumns,
		p.ID, p.Title, p.Brief, p.Summary, p.DurationSeconds, p.Style, p.AspectRatio,
		p.VideoProvider, p.BudgetLimitUSD, p.CostUSD, p.State, p.PrePauseState,
		p.PauseReason, p.Script, storyboard, shots, manifest,
		preview, validation, distribution, p.ErrorMessage,
		p.AutoPauseEnabled, p.PausedAt)

	updated, err := scanCreativeProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "upsert project %s", p.ID)
	}
	return &updated, nil
}

func (s *CreativeStore) ListForTenant(ctx context.Context, tenantID string) ([]creative.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+creativeColumns+` FROM creative_projects WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []creative.Project
	for rows.Next() {
		p, err := scanCreativeProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanCreativeProject(row scannable) (creative.Project, error) {
	var p creative.Project
	var storyboard, shots, manifest, preview, validation, distribution []byte

	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.Brief, &p.Summary, &p.DurationSeconds, &p.Style,
		&p.AspectRatio, &p.VideoProvider, &p.BudgetLimitUSD, &p.CostUSD, &p.State, &p.PrePauseState,
		&p.PauseReason, &p.Script, &storyboard, &shots, &manifest, &preview, &validation,
		&distribution, &p.ErrorMessage, &p.AutoPauseEnabled, &p.PausedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	if storyboard != nil {
		if err := json.Unmarshal(storyboard, &p.Storyboard); err != nil {
			return p, fmt.Errorf("unmarshal storyboard: %w", err)
		}
	}
	if shots != nil {
		if err := json.Unmarshal(shots, &p.Shots); err != nil {
			return p, fmt.Errorf("unmarshal shots: %w", err)
		}
	}
	if manifest != nil {
		if err := json.Unmarshal(manifest, &p.RenderManifest); err != nil {
			return p, fmt.Errorf("unmarshal render manifest: %w", err)
		}
	}
	if preview != nil {
		if err := json.Unmarshal(preview, &p.PreviewRecord); err != nil {
			return p, fmt.Errorf("unmarshal preview record: %w", err)
		}
	}
	if validation != nil {
		if err := json.Unmarshal(validation, &p.Validation); err != nil {
			return p, fmt.Errorf("unmarshal validation record: %w", err)
		}
	}
	if distribution != nil {
		if err := json.Unmarshal(distribution, &p.DistributionLog); err != nil {
			return p, fmt.Errorf("unmarshal distribution log: %w", err)
		}
	}
	return p, nil
}
