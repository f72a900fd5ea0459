package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler serves the liveness and banner endpoints
type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a new health handler. checks may be nil.
func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	body := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dependencies := make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				dependencies[name] = "unreachable"
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			dependencies[name] = "ok"
		}
		body["dependencies"] = dependencies
	}

	body["status"] = status
	respondWithJSON(w, code, body)
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Feyti Medical Report Assistant API",
		"status":  "running",
		"version": h.version,
	})
}
