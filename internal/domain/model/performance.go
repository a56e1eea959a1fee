// Package model contains the domain records loaded from the evaluation artifacts.
package model

// Robustness holds precomputed sensitivity-to-perturbation results:
// model accuracy under increasing signal jitter and amplitude scaling.
type Robustness struct {
	JitterLevels      []float64 `json:"jitter_levels"`
	JitterPerformance []float64 `json:"jitter_performance"`
	ScaleFactors      []float64 `json:"scale_factors"`
	ScalePerformance  []float64 `json:"scale_performance"`
}

// PerformanceData is the evaluation document. The robustness section is
// typed; the remaining sections are produced by the evaluation pipeline
// and passed through verbatim.
type PerformanceData struct {
	Robustness    *Robustness    `json:"robustness,omitempty"`
	Calibration   map[string]any `json:"calibration,omitempty"`
	ROCCurves     map[string]any `json:"roc_curves,omitempty"`
	PRCurves      map[string]any `json:"pr_curves,omitempty"`
	SliceAnalysis map[string]any `json:"slice_analysis,omitempty"`
}
