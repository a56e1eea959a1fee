// Package repository loads the evaluation artifacts and serves read access to them.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/cardiolab/ecgserve/pkg/metrics"
)

// Default directory layout produced by the evaluation pipeline.
const (
	defaultDataDir        = "evaluation_results"
	defaultECGImageDir    = "ecg_images"
	defaultAttributionDir = "attribution_maps"
)

// Artifact file names per case. The id is interpolated by artifactName.
const (
	ecgSingleCleanPattern = "case_%d_ecg_single_clean.png"
	ecg12LeadCleanPattern = "case_%d_ecg_12lead_clean.png"
	gradcamSinglePattern  = "case_%d_gradcam_single.png"
	gradcam12LeadPattern  = "case_%d_gradcam_12lead.png"
	shapPattern           = "case_%d_shap.png"
)

// FileStore implements Store over the JSON documents and PNG artifacts
// written by the evaluation pipeline. After a successful Load the state
// is an immutable snapshot; all lookups are pure reads over it.
type FileStore struct {
	mu sync.RWMutex

	dataDir        string
	ecgImageDir    string
	attributionDir string
	logger         logger.Logger

	loaded bool
	cases  []model.Case
	card   model.ModelCard
	perf   model.PerformanceData
}

// NewFileStore creates a file-backed store with configuration options.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		dataDir:        defaultDataDir,
		ecgImageDir:    defaultECGImageDir,
		attributionDir: defaultAttributionDir,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads and validates the three documents. It can be called again
// to retry after a failure; a failed attempt never clobbers prior state.
func (s *FileStore) Load(ctx context.Context) error {
	start := time.Now()
	log := s.log()

	cases, err := s.loadCases(ctx)
	if err != nil {
		metrics.RecordDataLoad(false)
		return err
	}

	var card model.ModelCard
	if err := readDocument(filepath.Join(s.dataDir, modelCardFile), &card); err != nil {
		metrics.RecordDataLoad(false)
		return err
	}

	var perf model.PerformanceData
	if err := readDocument(filepath.Join(s.dataDir, performanceFile), &perf); err != nil {
		metrics.RecordDataLoad(false)
		return err
	}

	s.mu.Lock()
	s.cases = cases
	s.card = card
	s.perf = perf
	s.loaded = true
	s.mu.Unlock()

	metrics.RecordDataLoad(true)
	metrics.UpdateDataLoaded(true)
	metrics.UpdateDatasetCases(len(cases))

	log.Info(ctx, "evaluation data loaded",
		logger.Int("cases", len(cases)),
		logger.String("model", card.ModelInfo.Name),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// loadCases reads the case list and enforces the load-time invariants:
// positive unique ids, known class labels, confidence within [0,1].
// Probability mass drift is logged, not rejected.
func (s *FileStore) loadCases(ctx context.Context) ([]model.Case, error) {
	path := filepath.Join(s.dataDir, casesFile)

	var cases []model.Case
	if err := readDocument(path, &cases); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(cases))
	for _, c := range cases {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", casesFile, err)
		}
		if _, dup := seen[c.CaseID]; dup {
			return nil, fmt.Errorf("%s: %w: case_id %d", casesFile, ErrDuplicateCase, c.CaseID)
		}
		seen[c.CaseID] = struct{}{}

		if !c.MassConsistent() {
			s.log().Warn(ctx, "prediction mass deviates from one",
				logger.Int("case_id", c.CaseID),
				logger.Float64("mass", c.PredictionMass()),
			)
		}
	}
	return cases, nil
}

// readDocument unmarshals one JSON file into v.
func readDocument(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadDocument, filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParseDocument, filepath.Base(path), err)
	}
	return nil
}

// Loaded reports whether a load has succeeded.
func (s *FileStore) Loaded(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Cases returns the loaded case list in file order, empty when unloaded.
func (s *FileStore) Cases(_ context.Context) []model.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Case, len(s.cases))
	copy(out, s.cases)
	return out
}

// Case returns the case identified by id. A linear scan is deliberate:
// the curated set stays at around ten records.
func (s *FileStore) Case(_ context.Context, id int) (model.Case, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLookupLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		metrics.RecordLookup("case", "unloaded")
		return model.Case{}, model.ErrNotLoaded
	}
	for _, c := range s.cases {
		if c.CaseID == id {
			metrics.RecordLookup("case", "hit")
			return c, nil
		}
	}
	metrics.RecordLookup("case", "miss")
	return model.Case{}, fmt.Errorf("case %d: %w", id, model.ErrNotFound)
}

// ModelCard returns the loaded model card.
func (s *FileStore) ModelCard(_ context.Context) (model.ModelCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		metrics.RecordLookup("model_card", "unloaded")
		return model.ModelCard{}, model.ErrNotLoaded
	}
	metrics.RecordLookup("model_card", "hit")
	return s.card, nil
}

// Performance returns the loaded evaluation document.
func (s *FileStore) Performance(_ context.Context) (model.PerformanceData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		metrics.RecordLookup("performance", "unloaded")
		return model.PerformanceData{}, model.ErrNotLoaded
	}
	metrics.RecordLookup("performance", "hit")
	return s.perf, nil
}

// CaseImages stats the five fixed-named artifact files for id and returns
// references for the subset that exists. The check is purely file-driven:
// an id outside the case list can still have artifacts on disk.
func (s *FileStore) CaseImages(_ context.Context, id int) (model.CaseImages, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		metrics.RecordLookup("images", "unloaded")
		return model.CaseImages{}, model.ErrNotLoaded
	}

	ci := model.CaseImages{
		CaseID:         id,
		ECGSingleClean: s.artifactRef(s.ecgImageDir, model.ECGImagePrefix, ecgSingleCleanPattern, id),
		ECG12LeadClean: s.artifactRef(s.ecgImageDir, model.ECGImagePrefix, ecg12LeadCleanPattern, id),
		GradCAMSingle:  s.artifactRef(s.attributionDir, model.AttributionPrefix, gradcamSinglePattern, id),
		GradCAM12Lead:  s.artifactRef(s.attributionDir, model.AttributionPrefix, gradcam12LeadPattern, id),
		SHAP:           s.artifactRef(s.attributionDir, model.AttributionPrefix, shapPattern, id),
	}

	available := ci.Available()
	if available == 0 {
		metrics.RecordLookup("images", "miss")
		return model.CaseImages{}, fmt.Errorf("images for case %d: %w", id, model.ErrNotFound)
	}
	ci.Message = fmt.Sprintf("%d of 5 artifacts available for case %d", available, id)
	metrics.RecordLookup("images", "hit")
	return ci, nil
}

// artifactRef returns the mounted URL for one artifact, or nil when the
// file does not exist or is not a regular file.
func (s *FileStore) artifactRef(dir, urlPrefix, pattern string, id int) *string {
	name := fmt.Sprintf(pattern, id)
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	ref := urlPrefix + name
	return &ref
}

// Count returns the number of loaded cases.
func (s *FileStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// log returns the configured logger, falling back to the global one.
func (s *FileStore) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}
