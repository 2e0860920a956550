package api

import (
	"log/slog"
	"net/http"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
