// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"
)

// HealthDependencies is what the health endpoint needs from the service.
type HealthDependencies interface {
	Loaded(ctx context.Context) bool
	StartedAt() time.Time
	Version() string
}

// healthResponse reports liveness and whether the dataset is available.
type healthResponse struct {
	Status      string `json:"status"`
	DataLoaded  bool   `json:"data_loaded"`
	StartupTime string `json:"startup_time"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
}

// HealthHandler answers the health check endpoint.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth reports service health. The route always answers 200: a
// service that is up but missing its dataset reports status "error" in
// the body.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	loaded := h.deps.Loaded(r.Context())
	status := "ok"
	if !loaded {
		status = "error"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:      status,
		DataLoaded:  loaded,
		StartupTime: h.deps.StartedAt().Format(time.RFC3339),
		Timestamp:   timestamp(),
		Version:     h.deps.Version(),
	})
}
