// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/internal/domain/report"
)

// CaseDependencies is what the case endpoints need from the service.
type CaseDependencies interface {
	ListCases(ctx context.Context) ([]report.CaseSummary, error)
	GetCase(ctx context.Context, id int) (model.Case, error)
	GetPrediction(ctx context.Context, id int) (report.CasePrediction, error)
	CaseImages(ctx context.Context, id int) (model.CaseImages, error)
}

// CasesHandler answers the case listing and per-case endpoints.
type CasesHandler struct {
	deps CaseDependencies
}

// NewCasesHandler creates a new cases handler.
func NewCasesHandler(deps CaseDependencies) *CasesHandler {
	return &CasesHandler{deps: deps}
}

// HandleListCases serves the curated case listing as a bare JSON array.
func (h *CasesHandler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	summaries, err := h.deps.ListCases(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleCase routes the per-case subtree: /case/{id} for the full record,
// /case/{id}/prediction for the classifier output and /case/{id}/images
// for the rendered artifact manifest.
func (h *CasesHandler) HandleCase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, routeCase), "/")
	switch {
	case len(parts) == 1:
		h.serveCase(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "prediction":
		h.servePrediction(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "images":
		h.serveImages(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *CasesHandler) serveCase(w http.ResponseWriter, r *http.Request, raw string) {
	id, ok := parseCaseID(w, raw)
	if !ok {
		return
	}

	c, err := h.deps.GetCase(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CasesHandler) servePrediction(w http.ResponseWriter, r *http.Request, raw string) {
	id, ok := parseCaseID(w, raw)
	if !ok {
		return
	}

	pred, err := h.deps.GetPrediction(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pred)
}

func (h *CasesHandler) serveImages(w http.ResponseWriter, r *http.Request, raw string) {
	id, ok := parseCaseID(w, raw)
	if !ok {
		return
	}

	imgs, err := h.deps.CaseImages(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, imgs)
}
