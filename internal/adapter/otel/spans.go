package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "studio"

// StartStageSpan starts a span for one creative pipeline stage.
func StartStageSpan(ctx context.Context, projectID, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "stage",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("stage.name", stage),
		),
	)
}

// StartToolCallSpan starts a span for a tool call within a session.
func StartToolCallSpan(ctx context.Context, sessionID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartRenderSpan starts a span covering the render fan-out for a project.
func StartRenderSpan(ctx context.Context, projectID string, shots int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "render",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("render.shots", shots),
		),
	)
}
