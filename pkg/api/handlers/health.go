// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/scriptd/scriptd/pkg/api/response"
	"github.com/scriptd/scriptd/pkg/version"
)

// HealthChecker reports whether the multicast pool is operational.
type HealthChecker interface {
	Healthy() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool HealthChecker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool HealthChecker) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Health handles the /healthz endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil || h.pool.Healthy() {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

// Version handles the /version endpoint.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, version.Info())
}
