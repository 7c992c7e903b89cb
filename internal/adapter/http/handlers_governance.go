package http

import (
	"net/http"
	"strconv"

	"github.com/nexgenlabs/studio/internal/domain/cost"
	"github.com/nexgenlabs/studio/internal/domain/event"
)

// CostSummary handles GET /api/v1/governance/costs/{id}
func (h *Handlers) CostSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Governance.Summary(r.Context(), urlParam(r, "id")))
}

// CostSummaries handles GET /api/v1/governance/costs
func (h *Handlers) CostSummaries(w http.ResponseWriter, r *http.Request) {
	summaries := h.Governance.Summaries(r.Context())
	if summaries == nil {
		summaries = []cost.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Anomalies handles GET /api/v1/governance/anomalies
func (h *Handlers) Anomalies(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	anomalies := h.Governance.Anomalies(r.URL.Query().Get("entity_id"), limit)
	if anomalies == nil {
		anomalies = []cost.Anomaly{}
	}
	writeJSON(w, http.StatusOK, anomalies)
}

// AuditEvents handles GET /api/v1/governance/events
func (h *Handlers) AuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	events := h.Governance.RecentEvents(limit)
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// UsageOverview handles GET /api/v1/governance/usage
func (h *Handlers) UsageOverview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Governance.UsageOverview())
}
