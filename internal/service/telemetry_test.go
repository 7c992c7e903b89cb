package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/port/messagequeue"
)

func TestFanoutEmitterDeliversToAllSinks(t *testing.T) {
	a := &recordingEmitter{}
	b := &recordingEmitter{}
	emitter := FanoutEmitter(a, nil, b)

	emitter.Emit(context.Background(), event.New(event.NameWorkflowError, map[string]any{"k": "v"}))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("delivery counts = %d, %d", len(a.events), len(b.events))
	}
}

type failingQueue struct{ published int }

func (q *failingQueue) Publish(context.Context, string, []byte) error {
	q.published++
	return errors.New("nats: connection closed")
}

func (q *failingQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return nil, errors.New("not implemented")
}

func (q *failingQueue) Drain() error      { return nil }
func (q *failingQueue) Close() error      { return nil }
func (q *failingQueue) IsConnected() bool { return false }

func TestQueueEmitterSwallowsPublishFailure(t *testing.T) {
	q := &failingQueue{}
	emitter := QueueEmitter(q, slog.Default())

	emitter.Emit(context.Background(), event.New(event.NameCostThreshold, nil))
	if q.published != 1 {
		t.Errorf("published = %d", q.published)
	}
}

func TestAuditLogRecentNewestFirst(t *testing.T) {
	audit := NewAuditLog(8)
	for i := 0; i < 3; i++ {
		audit.Emit(context.Background(), event.New(event.NameIterationStart, map[string]any{"i": i}))
	}

	recent := audit.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("recent = %d entries", len(recent))
	}
	if recent[0].Attributes["i"] != 2 || recent[1].Attributes["i"] != 1 {
		t.Errorf("order wrong: %v", recent)
	}
}

func TestAuditLogRingWraps(t *testing.T) {
	audit := NewAuditLog(4)
	for i := 0; i < 10; i++ {
		audit.Emit(context.Background(), event.New(event.NameToolStart, map[string]any{"i": i}))
	}

	recent := audit.Recent(0)
	if len(recent) != 4 {
		t.Fatalf("retained = %d, want capacity 4", len(recent))
	}
	if recent[0].Attributes["i"] != 9 || recent[3].Attributes["i"] != 6 {
		t.Errorf("wrap order wrong: %v", recent)
	}
}

func TestAuditLogCountsByName(t *testing.T) {
	audit := NewAuditLog(16)
	for i := 0; i < 3; i++ {
		audit.Emit(context.Background(), event.New(event.NameToolStart, nil))
	}
	audit.Emit(context.Background(), event.New(event.NameToolError, nil))

	counts := audit.CountsByName()
	if counts[string(event.NameToolStart)] != 3 {
		t.Errorf("tool starts = %d", counts[string(event.NameToolStart)])
	}
	if counts[string(event.NameToolError)] != 1 {
		t.Errorf("tool errors = %d", counts[string(event.NameToolError)])
	}
}

func TestKeyLockSerializesPerKey(t *testing.T) {
	locks := newKeyLock()
	done := make(chan string, 4)

	unlock := locks.Lock("a")
	go func() {
		inner := locks.Lock("a")
		done <- "second"
		inner()
	}()
	// A different key is not blocked.
	other := locks.Lock("b")
	other()
	done <- "first"
	unlock()

	if got := fmt.Sprintf("%s,%s", <-done, <-done); got != "first,second" {
		t.Errorf("order = %s", got)
	}
}
