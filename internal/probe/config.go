package probe

import "time"

// Config holds configuration for the API probe
type Config struct {
	BaseURL    string        // Base URL of the service
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Hammer     bool          // Send a burst to confirm the rate limiter engages
	OutputFile string        // Output file for findings
	LogFile    string        // Log file for probe output
	Verbose    bool          // Enable verbose logging
}

// Health mirrors the health endpoint response
type Health struct {
	Status     string `json:"status"`
	DataLoaded bool   `json:"data_loaded"`
	Version    string `json:"version"`
}

// CaseSummary mirrors one row of the case listing
type CaseSummary struct {
	CaseID         int     `json:"case_id"`
	Description    string  `json:"description"`
	TrueClass      string  `json:"true_class"`
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
}

// Case mirrors the verified fields of the full case record
type Case struct {
	CaseID         int                `json:"case_id"`
	Description    string             `json:"description"`
	TrueClass      string             `json:"true_class"`
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	Predictions    map[string]float64 `json:"predictions"`
}

// Prediction mirrors the prediction projection of a case
type Prediction struct {
	CaseID         int                `json:"case_id"`
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	Predictions    map[string]float64 `json:"predictions"`
	TrueClass      string             `json:"true_class"`
}

// ClinicalReport mirrors the report projection of a case
type ClinicalReport struct {
	CaseID         int     `json:"case_id"`
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
	ClinicalNote   string  `json:"clinical_note"`
}

// Images mirrors the artifact listing of a case
type Images struct {
	CaseID         int     `json:"case_id"`
	ECGSingleClean *string `json:"ecg_single_clean"`
	ECG12LeadClean *string `json:"ecg_12lead_clean"`
	GradCAMSingle  *string `json:"gradcam_single"`
	GradCAM12Lead  *string `json:"gradcam_12lead"`
	SHAP           *string `json:"shap"`
	Message        string  `json:"message"`
}

// ErrorBody mirrors the error envelope returned by the API
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds probe statistics
type Stats struct {
	RunID            string
	CasesListed      int
	CasesVerified    int
	CasesFailed      int
	Warnings         int
	Mismatches       []string
	AnalyticsChecked int
	RequestsSent     int64
	RateLimitHits    int64
	TotalLatency     time.Duration
	MaxLatency       time.Duration
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
