// Package repository loads the evaluation artifacts and serves read access to them.
package repository

import (
	"context"

	"github.com/cardiolab/ecgserve/internal/domain/model"
)

// Names of the three documents inside the data directory.
const (
	casesFile       = "curated_cases.json"
	modelCardFile   = "model_card.json"
	performanceFile = "performance_data.json"
)

// Store provides read access to the loaded evaluation state.
type Store interface {
	// Load reads and validates the three documents. On any failure the
	// previous state is kept untouched and the error is returned.
	Load(ctx context.Context) error

	// Loaded reports whether a load has succeeded.
	Loaded(ctx context.Context) bool

	// Cases returns the loaded case list in file order, empty when unloaded.
	Cases(ctx context.Context) []model.Case

	// Case returns the case identified by id.
	// Returns model.ErrNotLoaded or model.ErrNotFound accordingly.
	Case(ctx context.Context, id int) (model.Case, error)

	// ModelCard returns the loaded model card.
	ModelCard(ctx context.Context) (model.ModelCard, error)

	// Performance returns the loaded evaluation document.
	Performance(ctx context.Context) (model.PerformanceData, error)

	// CaseImages reports which pre-rendered artifacts exist for id.
	// Returns model.ErrNotFound when none of the five expected files exist.
	CaseImages(ctx context.Context, id int) (model.CaseImages, error)

	// Count returns the number of loaded cases.
	Count(ctx context.Context) int
}
