// Package report derives the read projections served by the API from
// loaded case and model card records. Every function here is a pure
// re-shaping of its input; no value is computed at request time.
package report

import (
	"github.com/cardiolab/ecgserve/internal/domain/diagnosis"
	"github.com/cardiolab/ecgserve/internal/domain/model"
)

// CaseSummary is the condensed row returned by the case listing.
type CaseSummary struct {
	CaseID         int             `json:"case_id"`
	Description    string          `json:"description"`
	TrueClass      diagnosis.Class `json:"true_class"`
	PredictedClass diagnosis.Class `json:"predicted_class"`
	Confidence     float64         `json:"confidence"`
}

// CasePrediction is the model-output projection of a case.
type CasePrediction struct {
	CaseID         int                `json:"case_id"`
	PredictedClass diagnosis.Class    `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	Predictions    map[string]float64 `json:"predictions"`
	TrueClass      diagnosis.Class    `json:"true_class"`
}

// ClinicalReport combines demographics, prediction and the narrative note.
type ClinicalReport struct {
	CaseID         int                `json:"case_id"`
	Demographics   model.Demographics `json:"demographics"`
	PredictedClass diagnosis.Class    `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	ClinicalNote   string             `json:"clinical_note"`
	ShapImportance map[string]float64 `json:"shap_importance"`
}

// MetricsSummary projects the model card plus the live case count.
type MetricsSummary struct {
	ModelName          string                   `json:"model_name"`
	Version            string                   `json:"version"`
	Architecture       string                   `json:"architecture"`
	PerformanceMetrics model.PerformanceMetrics `json:"performance_metrics"`
	TestCases          int                      `json:"test_cases"`
}

// Summarize returns the listing row for c.
func Summarize(c model.Case) CaseSummary {
	return CaseSummary{
		CaseID:         c.CaseID,
		Description:    c.Description,
		TrueClass:      c.TrueClass,
		PredictedClass: c.PredictedClass,
		Confidence:     c.Confidence,
	}
}

// SummarizeAll returns the listing rows for every case, preserving order.
func SummarizeAll(cases []model.Case) []CaseSummary {
	out := make([]CaseSummary, len(cases))
	for i, c := range cases {
		out[i] = Summarize(c)
	}
	return out
}

// Prediction returns the model-output projection of c.
func Prediction(c model.Case) CasePrediction {
	return CasePrediction{
		CaseID:         c.CaseID,
		PredictedClass: c.PredictedClass,
		Confidence:     c.Confidence,
		Predictions:    c.Predictions,
		TrueClass:      c.TrueClass,
	}
}

// Clinical returns the clinical-report projection of c. Generation is an
// alias of retrieval: the note was written offline alongside the prediction.
func Clinical(c model.Case) ClinicalReport {
	shap := c.ShapImportance
	if shap == nil {
		shap = map[string]float64{}
	}
	return ClinicalReport{
		CaseID:         c.CaseID,
		Demographics:   c.Demographics,
		PredictedClass: c.PredictedClass,
		Confidence:     c.Confidence,
		ClinicalNote:   c.ClinicalNote,
		ShapImportance: shap,
	}
}

// Metrics projects the model card plus the number of loaded cases.
func Metrics(card model.ModelCard, testCases int) MetricsSummary {
	return MetricsSummary{
		ModelName:          card.ModelInfo.Name,
		Version:            card.ModelInfo.Version,
		Architecture:       card.ModelInfo.Architecture,
		PerformanceMetrics: card.Performance,
		TestCases:          testCases,
	}
}

// RobustnessOrEmpty returns the robustness section, or its empty shape
// when the evaluation document carries none. Consumers rely on receiving
// arrays rather than nulls.
func RobustnessOrEmpty(pd model.PerformanceData) model.Robustness {
	if pd.Robustness == nil {
		return model.Robustness{
			JitterLevels:      []float64{},
			JitterPerformance: []float64{},
			ScaleFactors:      []float64{},
			ScalePerformance:  []float64{},
		}
	}
	r := *pd.Robustness
	if r.JitterLevels == nil {
		r.JitterLevels = []float64{}
	}
	if r.JitterPerformance == nil {
		r.JitterPerformance = []float64{}
	}
	if r.ScaleFactors == nil {
		r.ScaleFactors = []float64{}
	}
	if r.ScalePerformance == nil {
		r.ScalePerformance = []float64{}
	}
	return r
}

// Curves bundles the ROC and PR sections, defaulting each to an empty
// object when absent.
func Curves(pd model.PerformanceData) map[string]any {
	roc := pd.ROCCurves
	if roc == nil {
		roc = map[string]any{}
	}
	pr := pd.PRCurves
	if pr == nil {
		pr = map[string]any{}
	}
	return map[string]any{
		"roc_curves": roc,
		"pr_curves":  pr,
	}
}
