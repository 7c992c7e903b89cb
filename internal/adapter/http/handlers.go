package http

import (
	"net/http"

	"github.com/nexgenlabs/studio/internal/adapter/ws"
	"github.com/nexgenlabs/studio/internal/service"
)

// Handlers bundles the service dependencies of the HTTP layer.
type Handlers struct {
	Creative   *service.CreativeOrchestrator
	General    *service.GeneralOrchestrator
	Governance *service.GovernanceService
	Hub        *ws.Hub
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
