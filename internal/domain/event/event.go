// Package event defines the telemetry event record emitted by orchestrators
// and the cost governance layer.
package event

import (
	"context"
	"time"
)

// Name identifies the kind of telemetry event.
type Name string

const (
	NameBriefStart           Name = "creative.brief.start"
	NameBriefComplete        Name = "creative.brief.complete"
	NameScriptStart          Name = "creative.script.start"
	NameScriptComplete       Name = "creative.script.complete"
	NameStoryboardStart      Name = "creative.storyboard.start"
	NameStoryboardComplete   Name = "creative.storyboard.complete"
	NameShotsStart           Name = "creative.shots.start"
	NameShotsComplete        Name = "creative.shots.complete"
	NameRenderStart          Name = "creative.render.start"
	NameRenderComplete       Name = "creative.render.complete"
	NamePreviewStart         Name = "creative.preview.start"
	NamePreviewComplete      Name = "creative.preview.complete"
	NameValidationStart      Name = "creative.validation.start"
	NameValidationComplete   Name = "creative.validation.complete"
	NameDistributionStart    Name = "creative.distribution.start"
	NameDistributionComplete Name = "creative.distribution.complete"
	NameProjectPaused        Name = "creative.project.paused"
	NameProjectResumed       Name = "creative.project.resumed"
	NameWorkflowError        Name = "creative.workflow.error"

	NameSessionCompleted   Name = "general.session.completed"
	NameSessionPaused      Name = "general.session.paused"
	NameSessionError       Name = "general.session.error"
	NameGuardrailTriggered Name = "general.guardrail.triggered"
	NameIterationStart     Name = "general.iteration.start"
	NameToolError          Name = "general.tool.error"
	NameMemoryError        Name = "general.memory.error"
	NameCompressionError   Name = "general.compression.error"

	NameToolStart    Name = "tool.start"
	NameToolComplete Name = "tool.complete"

	NameCostThreshold       Name = "cost.threshold"
	NameCostAnomalyDetected Name = "cost.anomaly.detected"
)

// Event is a single immutable telemetry record.
type Event struct {
	Name       Name           `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// New builds an Event stamped with the current time.
func New(name Name, attrs map[string]any) Event {
	return Event{Name: name, Attributes: attrs, Timestamp: time.Now().UTC()}
}

// Emitter receives telemetry events. Emit must never fail the caller;
// sinks are best-effort.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, ev Event)

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Nop returns an Emitter that discards all events.
func Nop() Emitter {
	return EmitterFunc(func(context.Context, Event) {})
}
