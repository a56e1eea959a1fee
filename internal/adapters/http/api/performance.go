// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/internal/domain/report"
)

// PerformanceDependencies is what the aggregate analytics endpoints need
// from the service.
type PerformanceDependencies interface {
	MetricsSummary(ctx context.Context) (report.MetricsSummary, error)
	RobustnessSummary(ctx context.Context) (model.Robustness, error)
	Calibration(ctx context.Context) (map[string]any, error)
	RocPrCurves(ctx context.Context) (map[string]any, error)
	DemographicAnalysis(ctx context.Context) (map[string]any, error)
}

// PerformanceHandler answers the model performance and analytics endpoints.
type PerformanceHandler struct {
	deps PerformanceDependencies
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps PerformanceDependencies) *PerformanceHandler {
	return &PerformanceHandler{deps: deps}
}

// HandleMetricsSummary serves the headline model metrics with a
// response timestamp.
func (h *PerformanceHandler) HandleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	summary, err := h.deps.MetricsSummary(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		report.MetricsSummary
		Timestamp string `json:"timestamp"`
	}{summary, timestamp()})
}

// HandleRobustness serves the noise robustness sweep with a
// response timestamp.
func (h *PerformanceHandler) HandleRobustness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rob, err := h.deps.RobustnessSummary(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		model.Robustness
		Timestamp string `json:"timestamp"`
	}{rob, timestamp()})
}

// HandleCalibration serves the confidence calibration study.
func (h *PerformanceHandler) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	cal, err := h.deps.Calibration(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cal)
}

// HandleRocPr serves the ROC and precision-recall curve points.
func (h *PerformanceHandler) HandleRocPr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	curves, err := h.deps.RocPrCurves(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, curves)
}

// HandleDemographics serves the per-slice demographic analysis.
func (h *PerformanceHandler) HandleDemographics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	demo, err := h.deps.DemographicAnalysis(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, demo)
}
