package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Creative mode
		r.Post("/creative/projects", h.CreateProject)
		r.Get("/creative/projects", h.ListProjects)
		r.Get("/creative/projects/{id}", h.GetProject)
		r.Post("/creative/projects/{id}/advance", h.AdvanceProject)
		r.Post("/creative/projects/{id}/approve-script", h.ApproveScript)
		r.Post("/creative/projects/{id}/approve-preview", h.ApprovePreview)
		r.Post("/creative/projects/{id}/regenerate-storyboard", h.RegenerateStoryboard)
		r.Post("/creative/projects/{id}/pause", h.PauseProject)
		r.Post("/creative/projects/{id}/resume", h.ResumeProject)

		// General mode
		r.Post("/general/sessions", h.CreateSession)
		r.Get("/general/sessions", h.ListSessions)
		r.Get("/general/sessions/{id}", h.GetSession)
		r.Post("/general/sessions/{id}/iterate", h.IterateSession)

		// Budget governance
		r.Get("/governance/costs", h.CostSummaries)
		r.Get("/governance/costs/{id}", h.CostSummary)
		r.Get("/governance/anomalies", h.Anomalies)
		r.Get("/governance/events", h.AuditEvents)
		r.Get("/governance/usage", h.UsageOverview)
	})
}
