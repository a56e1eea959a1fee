// Package model contains the domain records loaded from the evaluation artifacts.
package model

// ModelInfo identifies the trained model.
type ModelInfo struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
}

// MIClinicalMetrics are the infarction screening metrics reported to clinicians.
type MIClinicalMetrics struct {
	Sensitivity float64 `json:"sensitivity"`
	Specificity float64 `json:"specificity"`
	PPV         float64 `json:"ppv"`
	NPV         float64 `json:"npv"`
}

// PerformanceMetrics aggregates held-out test-set performance.
type PerformanceMetrics struct {
	TestAccuracy      float64            `json:"test_accuracy"`
	MacroF1           float64            `json:"macro_f1"`
	ClassF1Scores     map[string]float64 `json:"class_f1_scores"`
	MIClinicalMetrics MIClinicalMetrics  `json:"mi_clinical_metrics"`
}

// DatasetInfo describes the evaluation dataset.
type DatasetInfo struct {
	Name     string `json:"name"`
	TestSize int    `json:"test_size"`
}

// ModelCard is the static document describing model identity and
// aggregate performance.
type ModelCard struct {
	ModelInfo   ModelInfo          `json:"model_info"`
	Performance PerformanceMetrics `json:"performance"`
	DatasetInfo DatasetInfo        `json:"dataset_info"`
}
