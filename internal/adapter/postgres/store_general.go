package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexgenlabs/studio/internal/domain/general"
)

const generalColumns = `id, tenant_id, goal, state, max_iterations, iteration, budget_limit_usd,
	spent_usd, auto_pause_enabled, pause_reason, summary, messages, tool_calls, created_at, updated_at`

func (s *GeneralStore) Create(ctx context.Context, req *general.CreateRequest) (*general.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	autoPause := true
	if req.AutoPauseEnabled != nil {
		autoPause = *req.AutoPauseEnabled
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO general_sessions (tenant_id, goal, max_iterations, budget_limit_usd, auto_pause_enabled)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+generalColumns,
		req.TenantID, req.Goal, req.MaxIterations, req.BudgetLimitUSD, autoPause)

	sess, err := scanGeneralSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

func (s *GeneralStore) Get(ctx context.Context, id string) (*general.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+generalColumns+` FROM general_sessions WHERE id = $1`, id)

	sess, err := scanGeneralSession(row)
	if err != nil {
		return nil, notFoundWrap(err, "get session %s", id)
	}
	return &sess, nil
}

func (s *GeneralStore) Upsert(ctx context.Context, sess *general.Session) (*general.Session, error) {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}
	toolCalls, err := json.Marshal(sess.ToolCalls)
	if err != nil {
		return nil, fmt.Errorf("marshal tool calls: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE general_sessions SET
			goal = $2, state = $3, max_iterations = $4, iteration = $5, budget_limit_usd = $6,
			spent_usd = $7, auto_pause_enabled = $8, pause_reason = $9, summary = $10,
			messages = $11, tool_calls = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+generalColumns,
		sess.ID, sess.Goal, sess.State, sess.MaxIterations, sess.Iteration, sess.BudgetLimitUSD,
		sess.SpentUSD, sess.AutoPauseEnabled, sess.PauseReason, sess.Summary,
		messages, toolCalls)

	updated, err := scanGeneralSession(row)
	if err != nil {
		return nil, notFoundWrap(err, "upsert session %s", sess.ID)
	}
	return &updated, nil
}

func (s *GeneralStore) ListForTenant(ctx context.Context, tenantID string) ([]general.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+generalColumns+` FROM general_sessions WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []general.Session
	for rows.Next() {
		sess, err := scanGeneralSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanGeneralSession(row scannable) (general.Session, error) {
	var sess general.Session
	var messages, toolCalls []byte

	err := row.Scan(&sess.ID, &sess.TenantID, &sess.Goal, &sess.State, &sess.MaxIterations,
		&sess.Iteration, &sess.BudgetLimitUSD, &sess.SpentUSD, &sess.AutoPauseEnabled,
		&sess.PauseReason, &sess.Summary, &messages, &toolCalls, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return sess, err
	}

	if messages != nil {
		if err := json.Unmarshal(messages, &sess.Messages); err != nil {
			return sess, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	if toolCalls != nil {
		if err := json.Unmarshal(toolCalls, &sess.ToolCalls); err != nil {
			return sess, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}
	return sess, nil
}
