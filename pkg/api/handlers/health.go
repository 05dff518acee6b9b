package handlers

import (
	"net/http"

	"github.com/mrusso19/picshuttle/pkg/journal"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the process running?
//   - Readiness probe: Is the upload journal reachable?
type HealthHandler struct {
	journal *journal.Journal
}

// NewHealthHandler creates a new health handler.
//
// The journal parameter may be nil, in which case the readiness check
// reports unhealthy.
func NewHealthHandler(j *journal.Journal) *HealthHandler {
	return &HealthHandler{journal: j}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "picshuttle",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when the journal database answers a read; 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("journal not initialized"))
		return
	}

	records, err := h.journal.List()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("journal unavailable: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"journaled_uploads": len(records),
	}))
}
