package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexgenlabs/studio/internal/port/repository"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// repository.ErrNotFound with the given message. Otherwise it wraps the
// original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// CreativeStore implements repository.CreativeStore on PostgreSQL.
type CreativeStore struct {
	pool *pgxpool.Pool
}

// NewCreativeStore creates a project store backed by the given pool.
func NewCreativeStore(pool *pgxpool.Pool) *CreativeStore {
	return &CreativeStore{pool: pool}
}

// GeneralStore implements repository.GeneralStore on PostgreSQL.
type GeneralStore struct {
	pool *pgxpool.Pool
}

// NewGeneralStore creates a session store backed by the given pool.
func NewGeneralStore(pool *pgxpool.Pool) *GeneralStore {
	return &GeneralStore{pool: pool}
}
