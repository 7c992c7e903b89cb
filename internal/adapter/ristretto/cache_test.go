package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "cost:proj-1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "cost:proj-1", []byte(`{"spent":1.5}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.Wait()

	val, ok, err := c.Get(ctx, "cost:proj-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(val) != `{"spent":1.5}` {
		t.Fatalf("unexpected value: %s", val)
	}
}

func TestCacheDelete(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "cost:sess-1", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.Wait()

	if err := c.Delete(ctx, "cost:sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	c.Wait()

	if _, ok, _ := c.Get(ctx, "cost:sess-1"); ok {
		t.Fatal("expected miss after Delete")
	}
}
