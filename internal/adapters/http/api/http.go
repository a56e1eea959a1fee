// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cardiolab/ecgserve/internal/adapters/audit"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/internal/domain/ratelimit"
	"github.com/cardiolab/ecgserve/internal/domain/report"
)

// Route patterns registered on the mux. The same strings key the rate
// limiter, so per-route limits in config line up with what is served.
const (
	routeRoot         = "/"
	routeHealth       = "/health"
	routeCases        = "/cases"
	routeCase         = "/case/"
	routeClinical     = "/clinical-report/"
	routeGenerate     = "/generate-report/"
	routeMetrics      = "/metrics-summary"
	routeRobustness   = "/robustness-summary"
	routeCalibration  = "/calibration"
	routeRocPr        = "/roc-pr-curves"
	routeDemographics = "/demographic-analysis"
	routeStats        = "/stats"
)

// Default per-client ceilings. The generate route answers fewer requests
// per window than the rest.
const (
	defaultDataLimit   = 10
	defaultReportLimit = 5
)

// NewDefaultLimiter builds the fixed-window limiter the server installs
// when none is injected. The report ceiling applies to the generate route;
// every other data route shares the default ceiling.
func NewDefaultLimiter(perMinute, reportPerMinute, maxClients int) ratelimit.Limiter {
	return ratelimit.NewFixedWindow(
		ratelimit.WithLimit(perMinute),
		ratelimit.WithRouteLimit(routeGenerate, reportPerMinute),
		ratelimit.WithMaxEntries(maxClients),
	)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HealthDependencies
	CaseDependencies
	ReportDependencies
	PerformanceDependencies
	Auditor
}

// Server wires HTTP routes for the evaluation results API.
type Server struct {
	healthHandler      *HealthHandler
	overviewHandler    *OverviewHandler
	casesHandler       *CasesHandler
	reportsHandler     *ReportsHandler
	performanceHandler *PerformanceHandler
	statsHandler       *StatsHandler

	auditor    Auditor
	limiter    ratelimit.Limiter
	corsOrigin string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimiter sets the limiter guarding the data routes.
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, stats StatsSource, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(deps),
		overviewHandler:    NewOverviewHandler(deps),
		casesHandler:       NewCasesHandler(deps),
		reportsHandler:     NewReportsHandler(deps),
		performanceHandler: NewPerformanceHandler(deps),
		statsHandler:       NewStatsHandler(stats),
		auditor:            deps,
		corsOrigin:         "*",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.limiter == nil {
		s.limiter = NewDefaultLimiter(defaultDataLimit, defaultReportLimit, 0)
	}

	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc(routeHealth, s.open(routeHealth, "health", s.healthHandler.HandleHealth))
	mux.HandleFunc(routeStats, s.open(routeStats, "stats", s.statsHandler.HandleStats))
	mux.HandleFunc(routeCases, s.limited(routeCases, "cases", s.casesHandler.HandleListCases))
	mux.HandleFunc(routeCase, s.limited(routeCase, "case", s.casesHandler.HandleCase))
	mux.HandleFunc(routeClinical, s.limited(routeClinical, "clinical_report", s.reportsHandler.HandleGetReport))
	mux.HandleFunc(routeGenerate, s.limited(routeGenerate, "generate_report", s.reportsHandler.HandleGenerateReport))
	mux.HandleFunc(routeMetrics, s.limited(routeMetrics, "metrics_summary", s.performanceHandler.HandleMetricsSummary))
	mux.HandleFunc(routeRobustness, s.limited(routeRobustness, "robustness_summary", s.performanceHandler.HandleRobustness))
	mux.HandleFunc(routeCalibration, s.limited(routeCalibration, "calibration", s.performanceHandler.HandleCalibration))
	mux.HandleFunc(routeRocPr, s.limited(routeRocPr, "roc_pr_curves", s.performanceHandler.HandleRocPr))
	mux.HandleFunc(routeDemographics, s.limited(routeDemographics, "demographic_analysis", s.performanceHandler.HandleDemographics))
	mux.HandleFunc(routeRoot, s.open(routeRoot, "root", s.overviewHandler.HandleOverview))
}

// limited builds the full middleware chain for a rate-limited data route.
func (s *Server) limited(pattern, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	h := RateLimitMiddleware(next, pattern, s.limiter)
	h = MetricsMiddleware(h, endpoint)
	h = CORSMiddleware(h, s.corsOrigin)
	h = RecoverMiddleware(h, endpoint)
	h = RequestLogMiddleware(h, pattern, s.auditor)
	h = RequestIDMiddleware(h)
	return h
}

// open builds the chain for routes that are never rate limited.
func (s *Server) open(pattern, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	h := MetricsMiddleware(next, endpoint)
	h = CORSMiddleware(h, s.corsOrigin)
	h = RecoverMiddleware(h, endpoint)
	h = RequestLogMiddleware(h, pattern, s.auditor)
	h = RequestIDMiddleware(h)
	return h
}

// Read shapes served by the API.
type (
	CaseSummary    = report.CaseSummary
	CasePrediction = report.CasePrediction
	ClinicalReport = report.ClinicalReport
	MetricsSummary = report.MetricsSummary
	Case           = model.Case
	CaseImages     = model.CaseImages
	Robustness     = model.Robustness
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError translates domain sentinels into the API status codes.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvalidCase):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseCaseID turns a path segment into a case id, answering 422 on
// anything that is not a positive integer.
func parseCaseID(w http.ResponseWriter, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error",
			fmt.Errorf("%w: case id %q", ErrInvalidID, raw))
		return 0, false
	}
	return id, true
}

// timestamp is the instant format stamped onto summary responses.
func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

// Auditor receives one record per answered request.
type Auditor interface {
	Audit(ctx context.Context, rec audit.Record) bool
}
