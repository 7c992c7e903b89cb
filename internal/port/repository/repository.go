// Package repository defines the persistence ports for workflow entities.
// Repositories are the only components permitted to mint new entity IDs.
package repository

import (
	"context"
	"errors"

	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/general"
)

// ErrNotFound is returned when an entity id does not exist in the store.
var ErrNotFound = errors.New("entity not found")

// CreativeStore is the port interface for creative project persistence.
type CreativeStore interface {
	Create(ctx context.Context, req *creative.CreateRequest) (*creative.Project, error)
	Get(ctx context.Context, id string) (*creative.Project, error)
	Upsert(ctx context.Context, p *creative.Project) (*creative.Project, error)
	ListForTenant(ctx context.Context, tenantID string) ([]creative.Project, error)
}

// GeneralStore is the port interface for general session persistence.
type GeneralStore interface {
	Create(ctx context.Context, req *general.CreateRequest) (*general.Session, error)
	Get(ctx context.Context, id string) (*general.Session, error)
	Upsert(ctx context.Context, s *general.Session) (*general.Session, error)
	ListForTenant(ctx context.Context, tenantID string) ([]general.Session, error)
}
