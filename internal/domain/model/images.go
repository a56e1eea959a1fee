// Package model contains the domain records loaded from the evaluation artifacts.
package model

// URL prefixes under which the artifact directories are mounted. The
// image references returned by the API are relative to the server root.
const (
	ECGImagePrefix    = "/images/ecg/"
	AttributionPrefix = "/images/attribution/"
)

// CaseImages lists the pre-rendered artifact files available for a case.
// Each reference is a server-relative URL, or nil when the file is absent.
type CaseImages struct {
	CaseID         int     `json:"case_id"`
	ECGSingleClean *string `json:"ecg_single_clean"`
	ECG12LeadClean *string `json:"ecg_12lead_clean"`
	GradCAMSingle  *string `json:"gradcam_single"`
	GradCAM12Lead  *string `json:"gradcam_12lead"`
	SHAP           *string `json:"shap"`
	Message        string  `json:"message"`
}

// Available returns the number of artifacts present.
func (ci CaseImages) Available() int {
	var n int
	for _, ref := range []*string{ci.ECGSingleClean, ci.ECG12LeadClean, ci.GradCAMSingle, ci.GradCAM12Lead, ci.SHAP} {
		if ref != nil {
			n++
		}
	}
	return n
}
