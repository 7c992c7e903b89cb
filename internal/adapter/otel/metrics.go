package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "studio"

// Metrics holds all studio metric instruments.
type Metrics struct {
	StagesAdvanced    metric.Int64Counter
	ProjectsCompleted metric.Int64Counter
	ProjectsFailed    metric.Int64Counter
	SessionsCompleted metric.Int64Counter
	ToolCalls         metric.Int64Counter
	AnomaliesDetected metric.Int64Counter
	EntitiesPaused    metric.Int64Counter
	StageDuration     metric.Float64Histogram
	StageCost         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.StagesAdvanced, err = meter.Int64Counter("studio.stages.advanced",
		metric.WithDescription("Number of pipeline stages executed"))
	if err != nil {
		return nil, err
	}

	m.ProjectsCompleted, err = meter.Int64Counter("studio.projects.completed",
		metric.WithDescription("Number of creative projects completed"))
	if err != nil {
		return nil, err
	}

	m.ProjectsFailed, err = meter.Int64Counter("studio.projects.failed",
		metric.WithDescription("Number of creative projects failed"))
	if err != nil {
		return nil, err
	}

	m.SessionsCompleted, err = meter.Int64Counter("studio.sessions.completed",
		metric.WithDescription("Number of general sessions completed"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("studio.toolcalls",
		metric.WithDescription("Number of tool calls"))
	if err != nil {
		return nil, err
	}

	m.AnomaliesDetected, err = meter.Int64Counter("studio.cost.anomalies",
		metric.WithDescription("Number of cost anomalies detected"))
	if err != nil {
		return nil, err
	}

	m.EntitiesPaused, err = meter.Int64Counter("studio.entities.paused",
		metric.WithDescription("Number of guardrail pauses"))
	if err != nil {
		return nil, err
	}

	m.StageDuration, err = meter.Float64Histogram("studio.stage.duration_seconds",
		metric.WithDescription("Stage duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.StageCost, err = meter.Float64Histogram("studio.stage.cost_usd",
		metric.WithDescription("Stage cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
