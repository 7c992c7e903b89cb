package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func exec(b *Breaker, fn func() error) error {
	return b.Execute(context.Background(), func(context.Context) error { return fn() })
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("llm", 3, time.Second)
	called := false
	err := exec(b, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("llm", 3, time.Second)

	for i := 0; i < 3; i++ {
		_ = exec(b, func() error { return errTest })
	}

	err := exec(b, func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	now := time.Now()
	b := NewBreaker("video", 2, time.Second)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = exec(b, func() error { return errTest })
	}

	err := exec(b, func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)

	called := false
	err = exec(b, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}

	b.mu.Lock()
	if b.state != stateClosed {
		t.Fatalf("expected state closed after half-open success, got %d", b.state)
	}
	b.mu.Unlock()
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("video", 2, time.Second)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = exec(b, func() error { return errTest })
	}

	now = now.Add(2 * time.Second)

	_ = exec(b, func() error { return errTest })

	b.mu.Lock()
	if b.state != stateOpen {
		t.Fatalf("expected state open after half-open failure, got %d", b.state)
	}
	b.mu.Unlock()

	err := exec(b, func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("llm", 3, time.Second)

	_ = exec(b, func() error { return errTest })
	_ = exec(b, func() error { return errTest })
	_ = exec(b, func() error { return nil })
	_ = exec(b, func() error { return errTest })
	_ = exec(b, func() error { return errTest })

	called := false
	err := exec(b, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestCanceledContextDoesNotTrip(t *testing.T) {
	b := NewBreaker("llm", 1, time.Second)

	_ = exec(b, func() error { return context.Canceled })

	called := false
	err := exec(b, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called after canceled context")
	}
}
