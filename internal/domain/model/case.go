// Package model contains the domain records loaded from the evaluation artifacts.
package model

import (
	"fmt"
	"math"

	"github.com/cardiolab/ecgserve/internal/domain/diagnosis"
)

// predictionMassTolerance bounds how far the per-class probabilities may
// deviate from summing to one before the loader flags the record.
const predictionMassTolerance = 0.01

// Demographics describes the patient attached to a case. HeartRate and
// Rhythm are optional in the source data.
type Demographics struct {
	Age       float64 `json:"age"`
	Sex       string  `json:"sex"`
	HeartRate *int    `json:"heart_rate"`
	Rhythm    *string `json:"rhythm"`
	Height    float64 `json:"height"`
	Weight    float64 `json:"weight"`
}

// Case is one curated patient record: ground truth, model output and
// narrative note. Identity is CaseID; records are immutable after load.
type Case struct {
	CaseID         int                `json:"case_id"`
	Description    string             `json:"description"`
	TrueClass      diagnosis.Class    `json:"true_class"`
	PredictedClass diagnosis.Class    `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	Predictions    map[string]float64 `json:"predictions"`
	Demographics   Demographics       `json:"demographics"`
	ClinicalNote   string             `json:"clinical_note"`
	ShapImportance map[string]float64 `json:"shap_importance,omitempty"`
}

// Validate checks the structural invariants of a single record.
// Prediction mass is deliberately not part of this check; see MassConsistent.
func (c Case) Validate() error {
	if c.CaseID <= 0 {
		return fmt.Errorf("%w: case_id %d", ErrInvalidCase, c.CaseID)
	}
	if !c.TrueClass.Valid() {
		return fmt.Errorf("%w: case %d true_class %q", ErrInvalidCase, c.CaseID, c.TrueClass)
	}
	if !c.PredictedClass.Valid() {
		return fmt.Errorf("%w: case %d predicted_class %q", ErrInvalidCase, c.CaseID, c.PredictedClass)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: case %d confidence %v outside [0,1]", ErrInvalidCase, c.CaseID, c.Confidence)
	}
	for label := range c.Predictions {
		if !diagnosis.Class(label).Valid() {
			return fmt.Errorf("%w: case %d prediction label %q", ErrInvalidCase, c.CaseID, label)
		}
	}
	return nil
}

// PredictionMass returns the sum of the per-class probabilities.
func (c Case) PredictionMass() float64 {
	var sum float64
	for _, p := range c.Predictions {
		sum += p
	}
	return sum
}

// MassConsistent reports whether the per-class probabilities sum to one
// within tolerance. Inconsistent mass is logged at load time, not rejected:
// the upstream pipeline rounds probabilities before export.
func (c Case) MassConsistent() bool {
	return math.Abs(c.PredictionMass()-1) <= predictionMassTolerance
}
