package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexgenlabs/studio/internal/domain/creative"
	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/logger"
	"github.com/nexgenlabs/studio/internal/port/repository"
	"github.com/nexgenlabs/studio/internal/service"
)

const (
	defaultBodyLimit = 1 << 20
	headerTenantID   = "X-Tenant-ID"
)

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, defaultBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// tenantID resolves the caller's tenant, defaulting when absent.
func tenantID(r *http.Request) string {
	if id := logger.TenantID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get(headerTenantID); id != "" {
		return id
	}
	return "default"
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps domain and service errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, fallbackMsg)
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, general.ErrNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, creative.ErrTitleRequired),
		errors.Is(err, creative.ErrBriefRequired),
		errors.Is(err, creative.ErrBudgetInvalid),
		errors.Is(err, general.ErrGoalRequired),
		errors.Is(err, general.ErrBudgetInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unhandled domain error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
