// Package service holds the orchestration core: the creative pipeline
// state machine, the general-mode ReAct driver, and the budget
// governance layer (ledger, monitor, governance queries) they report to.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/port/messagequeue"
)

// FanoutEmitter delivers each event to every sink in order. Sinks are
// best-effort; a nil sink is skipped.
func FanoutEmitter(sinks ...event.Emitter) event.Emitter {
	return event.EmitterFunc(func(ctx context.Context, ev event.Event) {
		for _, sink := range sinks {
			if sink != nil {
				sink.Emit(ctx, ev)
			}
		}
	})
}

// LogEmitter writes each event as a structured log record.
func LogEmitter(log *slog.Logger) event.Emitter {
	return event.EmitterFunc(func(ctx context.Context, ev event.Event) {
		log.InfoContext(ctx, "telemetry",
			slog.String("event", string(ev.Name)),
			slog.Any("attributes", ev.Attributes))
	})
}

// QueueEmitter publishes each event to the telemetry subject. Publish
// failures are logged and dropped; telemetry must never fail callers.
func QueueEmitter(queue messagequeue.Queue, log *slog.Logger) event.Emitter {
	return event.EmitterFunc(func(ctx context.Context, ev event.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			log.ErrorContext(ctx, "telemetry encode failed", slog.String("error", err.Error()))
			return
		}
		if err := queue.Publish(ctx, messagequeue.SubjectTelemetry, data); err != nil {
			log.WarnContext(ctx, "telemetry publish failed",
				slog.String("event", string(ev.Name)),
				slog.String("error", err.Error()))
		}
	})
}

// AuditLog retains recent telemetry events in a fixed-size ring for
// governance queries.
type AuditLog struct {
	mu    sync.RWMutex
	buf   []event.Event
	next  int
	total int
}

// NewAuditLog creates an audit ring holding at most capacity events.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = 1024
	}
	return &AuditLog{buf: make([]event.Event, capacity)}
}

// Emit implements event.Emitter.
func (a *AuditLog) Emit(_ context.Context, ev event.Event) {
	a.mu.Lock()
	a.buf[a.next] = ev
	a.next = (a.next + 1) % len(a.buf)
	a.total++
	a.mu.Unlock()
}

// Recent returns up to n retained events, newest first.
func (a *AuditLog) Recent(n int) []event.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()

	size := a.total
	if size > len(a.buf) {
		size = len(a.buf)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]event.Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (a.next - i + len(a.buf)) % len(a.buf)
		out = append(out, a.buf[idx])
	}
	return out
}

// CountsByName returns how many retained events carry each name.
func (a *AuditLog) CountsByName() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	size := a.total
	if size > len(a.buf) {
		size = len(a.buf)
	}
	counts := make(map[string]int, 16)
	for i := 1; i <= size; i++ {
		idx := (a.next - i + len(a.buf)) % len(a.buf)
		counts[string(a.buf[idx].Name)]++
	}
	return counts
}
