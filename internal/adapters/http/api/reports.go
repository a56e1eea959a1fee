// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cardiolab/ecgserve/internal/domain/report"
)

// ReportDependencies is what the clinical report endpoints need from the service.
type ReportDependencies interface {
	GetClinicalReport(ctx context.Context, id int) (report.ClinicalReport, error)
}

// ReportsHandler answers the clinical report endpoints.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new clinical reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGetReport serves GET /clinical-report/{id}.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.serve(w, r, strings.TrimPrefix(r.URL.Path, routeClinical))
}

// HandleGenerateReport serves POST /generate-report/{id}. Reports are
// assembled from stored results, so generating one returns the same
// document the GET route serves; the POST form exists for clients that
// treat report creation as an action.
func (h *ReportsHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.serve(w, r, strings.TrimPrefix(r.URL.Path, routeGenerate))
}

func (h *ReportsHandler) serve(w http.ResponseWriter, r *http.Request, raw string) {
	id, ok := parseCaseID(w, raw)
	if !ok {
		return
	}

	rep, err := h.deps.GetClinicalReport(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}
