package http

import (
	"net/http"

	"github.com/nexgenlabs/studio/internal/domain/creative"
)

// CreateProject handles POST /api/v1/creative/projects
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[creative.CreateRequest](w, r)
	if !ok {
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID(r)
	}
	project, err := h.Creative.CreateProject(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject handles GET /api/v1/creative/projects/{id}
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ListProjects handles GET /api/v1/creative/projects
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Creative.List(r.Context(), tenantID(r))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	if projects == nil {
		projects = []creative.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// AdvanceProject handles POST /api/v1/creative/projects/{id}/advance
func (h *Handlers) AdvanceProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.Advance(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ApproveScript handles POST /api/v1/creative/projects/{id}/approve-script
func (h *Handlers) ApproveScript(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.ApproveScript(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ApprovePreview handles POST /api/v1/creative/projects/{id}/approve-preview
func (h *Handlers) ApprovePreview(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.ApprovePreview(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// RegenerateStoryboard handles POST /api/v1/creative/projects/{id}/regenerate-storyboard
func (h *Handlers) RegenerateStoryboard(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.RegenerateStoryboard(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

// PauseProject handles POST /api/v1/creative/projects/{id}/pause
func (h *Handlers) PauseProject(w http.ResponseWriter, r *http.Request) {
	var reason string
	if r.ContentLength > 0 {
		req, ok := readJSON[pauseRequest](w, r)
		if !ok {
			return
		}
		reason = req.Reason
	}
	project, err := h.Creative.Pause(r.Context(), urlParam(r, "id"), reason)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ResumeProject handles POST /api/v1/creative/projects/{id}/resume
func (h *Handlers) ResumeProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Creative.Resume(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}
