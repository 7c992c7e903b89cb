package http

import (
	"net/http"

	"github.com/nexgenlabs/studio/internal/domain/general"
)

// CreateSession handles POST /api/v1/general/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[general.CreateRequest](w, r)
	if !ok {
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID(r)
	}
	session, err := h.General.CreateSession(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /api/v1/general/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.General.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /api/v1/general/sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.General.List(r.Context(), tenantID(r))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	if sessions == nil {
		sessions = []general.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type iterateRequest struct {
	Prompt string `json:"prompt"`
}

// IterateSession handles POST /api/v1/general/sessions/{id}/iterate
func (h *Handlers) IterateSession(w http.ResponseWriter, r *http.Request) {
	var prompt string
	if r.ContentLength > 0 {
		req, ok := readJSON[iterateRequest](w, r)
		if !ok {
			return
		}
		prompt = req.Prompt
	}
	session, err := h.General.RunIteration(r.Context(), urlParam(r, "id"), prompt)
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
