// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// OverviewDependencies is what the overview endpoint needs from the service.
type OverviewDependencies interface {
	Version() string
}

// overviewResponse is the static API overview served at the root path.
type overviewResponse struct {
	App     string        `json:"app"`
	Purpose string        `json:"purpose"`
	Model   overviewModel `json:"model"`
	Author  string        `json:"author"`
	Version string        `json:"version"`
	Docs    string        `json:"documentation"`
}

type overviewModel struct {
	Type         string            `json:"type"`
	Performance  map[string]string `json:"performance"`
	TrainingData string            `json:"training_data"`
}

// OverviewHandler answers the root path with a short API description.
type OverviewHandler struct {
	deps OverviewDependencies
}

// NewOverviewHandler creates a new overview handler.
func NewOverviewHandler(deps OverviewDependencies) *OverviewHandler {
	return &OverviewHandler{deps: deps}
}

// HandleOverview serves the API overview. The root pattern matches every
// path the mux has no better handler for, so anything but "/" itself is
// a 404.
func (h *OverviewHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != routeRoot {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		App:     "ECG Classification API",
		Purpose: "Serve precomputed cardiac ECG analysis results with clinical-grade precision.",
		Model: overviewModel{
			Type: "ResNet-1D + Dense Multimodal Network",
			Performance: map[string]string{
				"MI_sensitivity":   "96.2%",
				"MI_specificity":   "100.0%",
				"overall_accuracy": "87.4%",
			},
			TrainingData: "PTB-XL Dataset (22,000 ECG records, 19,000 patients)",
		},
		Author:  "CardioLab Research",
		Version: h.deps.Version(),
		Docs:    "/api-docs",
	})
}
