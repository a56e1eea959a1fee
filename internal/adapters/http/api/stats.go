// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// StatsSource supplies the runtime counters served at /stats.
type StatsSource interface {
	GetStats() map[string]interface{}
}

// StatsHandler answers the service statistics endpoint.
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// HandleStats serves runtime counters: dataset state, uptime and the
// audit trail backlog.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.source.GetStats())
}
