// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cardiolab/ecgserve/internal/adapters/audit"
	"github.com/cardiolab/ecgserve/internal/adapters/repository"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/internal/domain/report"
	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/cardiolab/ecgserve/pkg/metrics"
)

// Version reported by health checks and the API overview.
const defaultVersion = "1.0.0"

// Service implements the API dependencies for the evaluation results system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store
	trail *audit.Writer

	// Configuration
	dataDir         string
	ecgImageDir     string
	attributionDir  string
	auditPath       string
	auditMaxRecords int
	auditQueueSize  int
	version         string

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets a pre-built evaluation store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAuditWriter sets a pre-built audit writer.
func WithAuditWriter(w *audit.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.trail = w
		}
	}
}

// WithDataDir sets the directory holding the evaluation documents.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithECGImageDir sets the directory holding rendered ECG plots.
func WithECGImageDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.ecgImageDir = dir
		}
	}
}

// WithAttributionDir sets the directory holding attribution maps.
func WithAttributionDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.attributionDir = dir
		}
	}
}

// WithAuditPath sets the SQLite file backing the audit trail.
// When empty the trail stays in memory.
func WithAuditPath(path string) Option {
	return func(s *Service) {
		s.auditPath = path
	}
}

// WithAuditMaxRecords caps how many audit records are retained.
func WithAuditMaxRecords(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.auditMaxRecords = n
		}
	}
}

// WithAuditQueueSize sets the audit writer queue capacity.
func WithAuditQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.auditQueueSize = n
		}
	}
}

// WithVersion overrides the reported service version.
func WithVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		auditMaxRecords: 1000,
		auditQueueSize:  1024,
		version:         defaultVersion,
		logger:          nil, // will be replaced when the service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and loads the evaluation data.
// A load failure is not fatal: the service comes up unloaded and the data
// routes answer 503 until a successful load.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting evaluation results service...")

	if s.store == nil {
		storeOpts := []repository.Option{
			repository.WithLogger(s.logger.Named("repository")),
		}
		if s.dataDir != "" {
			storeOpts = append(storeOpts, repository.WithDataDir(s.dataDir))
		}
		if s.ecgImageDir != "" {
			storeOpts = append(storeOpts, repository.WithECGImageDir(s.ecgImageDir))
		}
		if s.attributionDir != "" {
			storeOpts = append(storeOpts, repository.WithAttributionDir(s.attributionDir))
		}
		s.store = repository.NewFileStore(storeOpts...)
	}

	if s.trail == nil {
		s.trail = audit.NewWriter(
			s.newAuditStore(ctx),
			audit.WithQueueSize(s.auditQueueSize),
			audit.WithLogger(s.logger.Named("audit")),
		)
	}

	if err := s.store.Load(ctx); err != nil {
		s.logger.Error(ctx, "loading evaluation data failed", logger.Error(err))
	}

	s.started = true
	s.startedAt = time.Now().UTC()
	s.logger.Info(ctx, "evaluation results service started",
		logger.Bool("data_loaded", s.store.Loaded(ctx)),
		logger.Int("cases", s.store.Count(ctx)),
		logger.String("version", s.version),
	)

	return nil
}

// newAuditStore opens the SQLite trail, falling back to the in-memory
// ring when no path is configured or the database cannot be opened.
func (s *Service) newAuditStore(ctx context.Context) audit.Store {
	if s.auditPath == "" {
		return audit.NewMemoryStore(s.auditMaxRecords)
	}
	store, err := audit.NewSQLiteStore(s.auditPath,
		audit.WithMaxRows(s.auditMaxRecords),
		audit.WithStoreLogger(s.logger.Named("audit")),
	)
	if err != nil {
		s.logger.Warn(ctx, "audit database unavailable, using in-memory trail",
			logger.String("path", s.auditPath),
			logger.Error(err),
		)
		return audit.NewMemoryStore(s.auditMaxRecords)
	}
	return store
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping evaluation results service...")

	if s.trail != nil {
		if err := s.trail.Close(); err != nil {
			s.logger.Error(context.Background(), "closing audit trail failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "evaluation results service stopped")
}

// Loaded reports whether the evaluation data is available.
func (s *Service) Loaded(ctx context.Context) bool {
	return s.store.Loaded(ctx)
}

// StartedAt returns when the service came up.
func (s *Service) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Version returns the service version string.
func (s *Service) Version() string {
	return s.version
}

// ListCases returns the curated case list as summaries.
func (s *Service) ListCases(ctx context.Context) ([]report.CaseSummary, error) {
	if !s.store.Loaded(ctx) {
		return nil, model.ErrNotLoaded
	}
	return report.SummarizeAll(s.store.Cases(ctx)), nil
}

// GetCase returns the full record for one case.
func (s *Service) GetCase(ctx context.Context, id int) (model.Case, error) {
	return s.store.Case(ctx, id)
}

// GetPrediction returns the model output projection for one case.
func (s *Service) GetPrediction(ctx context.Context, id int) (report.CasePrediction, error) {
	c, err := s.store.Case(ctx, id)
	if err != nil {
		return report.CasePrediction{}, err
	}
	return report.Prediction(c), nil
}

// GetClinicalReport returns the clinical projection for one case. The
// report is a view over stored data, so generating and fetching are the
// same operation.
func (s *Service) GetClinicalReport(ctx context.Context, id int) (report.ClinicalReport, error) {
	c, err := s.store.Case(ctx, id)
	if err != nil {
		return report.ClinicalReport{}, err
	}
	return report.Clinical(c), nil
}

// MetricsSummary returns the model card flattened for the dashboard.
func (s *Service) MetricsSummary(ctx context.Context) (report.MetricsSummary, error) {
	card, err := s.store.ModelCard(ctx)
	if err != nil {
		return report.MetricsSummary{}, err
	}
	return report.Metrics(card, s.store.Count(ctx)), nil
}

// RobustnessSummary returns the noise and scale sweeps. Absent sections
// come back as empty series rather than an error.
func (s *Service) RobustnessSummary(ctx context.Context) (model.Robustness, error) {
	perf, err := s.store.Performance(ctx)
	if err != nil {
		return model.Robustness{}, err
	}
	return report.RobustnessOrEmpty(perf), nil
}

// Calibration returns the calibration section of the performance document.
func (s *Service) Calibration(ctx context.Context) (map[string]any, error) {
	perf, err := s.store.Performance(ctx)
	if err != nil {
		return nil, err
	}
	if perf.Calibration == nil {
		return nil, fmt.Errorf("calibration data: %w", model.ErrNotFound)
	}
	return perf.Calibration, nil
}

// RocPrCurves returns the ROC and PR curve sections, defaulting each to
// an empty object when absent.
func (s *Service) RocPrCurves(ctx context.Context) (map[string]any, error) {
	perf, err := s.store.Performance(ctx)
	if err != nil {
		return nil, err
	}
	return report.Curves(perf), nil
}

// DemographicAnalysis returns performance sliced by patient demographics.
func (s *Service) DemographicAnalysis(ctx context.Context) (map[string]any, error) {
	perf, err := s.store.Performance(ctx)
	if err != nil {
		return nil, err
	}
	if perf.SliceAnalysis == nil {
		return nil, fmt.Errorf("demographic analysis: %w", model.ErrNotFound)
	}
	return perf.SliceAnalysis, nil
}

// CaseImages reports which rendered artifacts exist for one case.
func (s *Service) CaseImages(ctx context.Context, id int) (model.CaseImages, error) {
	return s.store.CaseImages(ctx, id)
}

// Audit hands a request record to the trail writer.
func (s *Service) Audit(ctx context.Context, rec audit.Record) bool {
	if s.trail == nil {
		return false
	}
	return s.trail.Record(ctx, rec)
}

// AuditRecent returns the newest trail entries for the stats view.
func (s *Service) AuditRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	if s.trail == nil {
		return nil, nil
	}
	return s.trail.Store().Recent(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
		"version": s.version,
	}

	if s.started {
		stats["data_loaded"] = s.store.Loaded(ctx)
		stats["case_count"] = s.store.Count(ctx)
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())

		if s.trail != nil {
			depth := s.trail.Depth()
			stats["audit_queue_depth"] = depth
			stats["audit_dropped"] = s.trail.Dropped()
			metrics.UpdateAuditQueueDepth(depth)
			if sum, err := s.trail.Store().Summarize(ctx); err == nil {
				stats["audit_records"] = sum.Total
				stats["audit"] = sum
			}
		}
	}

	return stats
}
