// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/pylon/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check and metrics requests.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMetrics serves the custom Prometheus registry on GET /metrics.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
