// Package memory provides in-memory implementations of the persistence
// ports, used in dev mode and by service tests. Stores are safe for
// concurrent use and return deep copies so callers cannot mutate shared
// state behind the store's back.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/port/repository"
)

// CreativeStore keeps projects in a map keyed by ID.
type CreativeStore struct {
	mu       sync.RWMutex
	projects map[string]*creative.Project
}

// NewCreativeStore returns an empty in-memory project store.
func NewCreativeStore() *CreativeStore {
	return &CreativeStore{projects: make(map[string]*creative.Project)}
}

func (s *CreativeStore) Create(_ context.Context, req *creative.CreateRequest) (*creative.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	autoPause := true
	if req.AutoPauseEnabled != nil {
		autoPause = *req.AutoPauseEnabled
	}
	p := &creative.Project{
		ID:               uuid.NewString(),
		TenantID:         req.TenantID,
		Title:            req.Title,
		Brief:            req.Brief,
		DurationSeconds:  req.DurationSeconds,
		Style:            req.Style,
		AspectRatio:      req.AspectRatio,
		BudgetLimitUSD:   req.BudgetLimitUSD,
		State:            creative.StateBriefPending,
		AutoPauseEnabled: autoPause,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()

	return copyProject(p)
}

func (s *CreativeStore) Get(_ context.Context, id string) (*creative.Project, error) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get project %s: %w", id, repository.ErrNotFound)
	}
	return copyProject(p)
}

func (s *CreativeStore) Upsert(_ context.Context, p *creative.Project) (*creative.Project, error) {
	stored, err := copyProject(p)
	if err != nil {
		return nil, err
	}
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.projects[stored.ID] = stored
	s.mu.Unlock()

	return copyProject(stored)
}

func (s *CreativeStore) ListForTenant(_ context.Context, tenantID string) ([]creative.Project, error) {
	s.mu.RLock()
	out := make([]creative.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.TenantID != tenantID {
			continue
		}
		cp, err := copyProject(p)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, *cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GeneralStore keeps sessions in a map keyed by ID.
type GeneralStore struct {
	mu       sync.RWMutex
	sessions map[string]*general.Session
}

// NewGeneralStore returns an empty in-memory session store.
func NewGeneralStore() *GeneralStore {
	return &GeneralStore{sessions: make(map[string]*general.Session)}
}

func (s *GeneralStore) Create(_ context.Context, req *general.CreateRequest) (*general.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	autoPause := true
	if req.AutoPauseEnabled != nil {
		autoPause = *req.AutoPauseEnabled
	}
	sess := &general.Session{
		ID:               uuid.NewString(),
		TenantID:         req.TenantID,
		Goal:             req.Goal,
		State:            general.StateActive,
		MaxIterations:    req.MaxIterations,
		BudgetLimitUSD:   req.BudgetLimitUSD,
		AutoPauseEnabled: autoPause,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return copySession(sess)
}

func (s *GeneralStore) Get(_ context.Context, id string) (*general.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get session %s: %w", id, repository.ErrNotFound)
	}
	return copySession(sess)
}

func (s *GeneralStore) Upsert(_ context.Context, sess *general.Session) (*general.Session, error) {
	stored, err := copySession(sess)
	if err != nil {
		return nil, err
	}
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.sessions[stored.ID] = stored
	s.mu.Unlock()

	return copySession(stored)
}

func (s *GeneralStore) ListForTenant(_ context.Context, tenantID string) ([]general.Session, error) {
	s.mu.RLock()
	out := make([]general.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.TenantID != tenantID {
			continue
		}
		cp, err := copySession(sess)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, *cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// copyProject deep-copies via JSON. Projects carry nested slices and
// pointers, so a field-by-field copy is too easy to get wrong.
func copyProject(p *creative.Project) (*creative.Project, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("copy project: %w", err)
	}
	var cp creative.Project
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("copy project: %w", err)
	}
	return &cp, nil
}

func copySession(s *general.Session) (*general.Session, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("copy session: %w", err)
	}
	var cp general.Session
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("copy session: %w", err)
	}
	return &cp, nil
}
