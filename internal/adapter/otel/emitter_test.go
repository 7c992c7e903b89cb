package otel

import (
	"context"
	"testing"

	"github.com/nexgenlabs/studio/internal/domain/event"
)

func TestMetricsEmitterHandlesAllEventShapes(t *testing.T) {
	metrics, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	emitter := NewMetricsEmitter(metrics)
	ctx := context.Background()

	// The global meter is a no-op in tests; this exercises the mapping
	// paths for panics and attribute handling.
	emitter.Emit(ctx, event.New(event.NameScriptComplete, map[string]any{
		"project_id":  "p1",
		"cost_usd":    0.05,
		"duration_ms": int64(120),
	}))
	emitter.Emit(ctx, event.New(event.NameDistributionComplete, map[string]any{"project_id": "p1"}))
	emitter.Emit(ctx, event.New(event.NameWorkflowError, nil))
	emitter.Emit(ctx, event.New(event.NameToolStart, map[string]any{"tool": "calculator"}))
	emitter.Emit(ctx, event.New(event.NameCostAnomalyDetected, map[string]any{"alert_type": "rate_spike"}))
	emitter.Emit(ctx, event.New(event.NameProjectPaused, map[string]any{"project_id": "p1"}))
	emitter.Emit(ctx, event.New(event.NameSessionCompleted, map[string]any{"session_id": "s1"}))
	emitter.Emit(ctx, event.New(event.NameIterationStart, nil))
}

func TestFloatAttr(t *testing.T) {
	attrs := map[string]any{"f": 1.5, "i": 3, "i64": int64(7), "s": "x"}
	if v, ok := floatAttr(attrs, "f"); !ok || v != 1.5 {
		t.Errorf("f = %v, %v", v, ok)
	}
	if v, ok := floatAttr(attrs, "i"); !ok || v != 3 {
		t.Errorf("i = %v, %v", v, ok)
	}
	if v, ok := floatAttr(attrs, "i64"); !ok || v != 7 {
		t.Errorf("i64 = %v, %v", v, ok)
	}
	if _, ok := floatAttr(attrs, "s"); ok {
		t.Error("string should not convert")
	}
	if _, ok := floatAttr(attrs, "missing"); ok {
		t.Error("missing key should not convert")
	}
}
