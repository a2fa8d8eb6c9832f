package handlers

import (
	"net/http"

	"github.com/apetrov/finsight/internal/api/middleware"
)

// ReadinessChecker reports whether a service has a usable model behind it.
type ReadinessChecker interface {
	Ready() bool
}

// HealthHandler serves the root and health endpoints.
type HealthHandler struct {
	services map[string]ReadinessChecker
}

// NewHealthHandler creates a health handler over the named services.
func NewHealthHandler(services map[string]ReadinessChecker) *HealthHandler {
	return &HealthHandler{services: services}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Finsight ML Service",
		"status":  "running",
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	services := make(map[string]string, len(h.services))
	for name, svc := range h.services {
		if svc != nil && svc.Ready() {
			services[name] = "ready"
		} else {
			services[name] = "unavailable"
			status = "degraded"
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}
