package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/port/repository"
)

func TestCreativeStoreCreateAndGet(t *testing.T) {
	s := NewCreativeStore()
	ctx := context.Background()

	p, err := s.Create(ctx, &creative.CreateRequest{Title: "Launch teaser", Brief: "30s product teaser"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected minted ID")
	}
	if p.State != creative.StateBriefPending {
		t.Errorf("expected brief_pending, got %s", p.State)
	}
	if p.BudgetLimitUSD != 50 {
		t.Errorf("expected default budget 50, got %v", p.BudgetLimitUSD)
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Launch teaser" {
		t.Errorf("unexpected title %q", got.Title)
	}
}

func TestCreativeStoreGetMissing(t *testing.T) {
	s := NewCreativeStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreativeStoreUpsertIsolation(t *testing.T) {
	s := NewCreativeStore()
	ctx := context.Background()

	p, err := s.Create(ctx, &creative.CreateRequest{Title: "t", Brief: "b"})
	if err != nil {
		t.Fatal(err)
	}

	p.Script = "INT. LAB - NIGHT"
	if _, err := s.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	p.Script = "mutated after upsert"
	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Script != "INT. LAB - NIGHT" {
		t.Errorf("store leaked caller mutation: %q", got.Script)
	}
}

func TestCreativeStoreListForTenant(t *testing.T) {
	s := NewCreativeStore()
	ctx := context.Background()

	for _, tenant := range []string{"acme", "acme", "other"} {
		_, err := s.Create(ctx, &creative.CreateRequest{TenantID: tenant, Title: "t", Brief: "b"})
		if err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListForTenant(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 projects for acme, got %d", len(list))
	}
}

func TestGeneralStoreRoundTrip(t *testing.T) {
	s := NewGeneralStore()
	ctx := context.Background()

	sess, err := s.Create(ctx, &general.CreateRequest{Goal: "summarize quarterly report"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != general.StateActive {
		t.Errorf("expected active, got %s", sess.State)
	}
	if sess.MaxIterations != 6 {
		t.Errorf("expected default 6 iterations, got %d", sess.MaxIterations)
	}
	if sess.BudgetLimitUSD != 5 {
		t.Errorf("expected default budget 5, got %v", sess.BudgetLimitUSD)
	}

	sess.SpentUSD = 1.25
	sess.Iteration = 2
	if _, err := s.Upsert(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SpentUSD != 1.25 || got.Iteration != 2 {
		t.Errorf("upsert not persisted: spent=%v iter=%d", got.SpentUSD, got.Iteration)
	}
}

func TestGeneralStoreGetMissing(t *testing.T) {
	s := NewGeneralStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
