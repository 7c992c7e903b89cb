package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nexgenlabs/studio/internal/domain/event"
)

// MetricsEmitter is an event sink that increments metric instruments
// for the telemetry events it recognizes. Unrecognized events are
// dropped; the audit log keeps the full stream.
type MetricsEmitter struct {
	metrics *Metrics
}

// NewMetricsEmitter wraps the given instruments as an event.Emitter.
func NewMetricsEmitter(m *Metrics) *MetricsEmitter {
	return &MetricsEmitter{metrics: m}
}

// Emit implements event.Emitter.
func (e *MetricsEmitter) Emit(ctx context.Context, ev event.Event) {
	name := string(ev.Name)
	switch {
	case strings.HasSuffix(name, ".complete") && strings.HasPrefix(name, "creative."):
		stage := strings.TrimSuffix(strings.TrimPrefix(name, "creative."), ".complete")
		stageAttr := metric.WithAttributes(attribute.String("stage", stage))
		e.metrics.StagesAdvanced.Add(ctx, 1, stageAttr)
		if v, ok := floatAttr(ev.Attributes, "cost_usd"); ok {
			e.metrics.StageCost.Record(ctx, v, stageAttr)
		}
		if v, ok := floatAttr(ev.Attributes, "duration_ms"); ok {
			e.metrics.StageDuration.Record(ctx, v/1000, stageAttr)
		}
		if ev.Name == event.NameDistributionComplete {
			e.metrics.ProjectsCompleted.Add(ctx, 1)
		}

	case ev.Name == event.NameSessionCompleted:
		e.metrics.SessionsCompleted.Add(ctx, 1)

	case ev.Name == event.NameWorkflowError:
		e.metrics.ProjectsFailed.Add(ctx, 1)

	case ev.Name == event.NameToolStart:
		e.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", stringAttr(ev.Attributes, "tool"))))

	case ev.Name == event.NameCostAnomalyDetected:
		e.metrics.AnomaliesDetected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", stringAttr(ev.Attributes, "alert_type"))))

	case ev.Name == event.NameProjectPaused, ev.Name == event.NameSessionPaused:
		e.metrics.EntitiesPaused.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", strings.SplitN(name, ".", 2)[0])))
	}
}

func floatAttr(attrs map[string]any, key string) (float64, bool) {
	switch v := attrs[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}
