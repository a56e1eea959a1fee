// Package metrics exposes the Prometheus families the service emits.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric family. The package-level helpers record
// through a single manager registered on the package registry.
type Manager struct {
	namespace   string
	subsystem   string
	buckets     []float64
	constLabels prometheus.Labels
	registry    prometheus.Registerer

	// Dataset: state of the loaded evaluation artifacts.
	dataLoaded    prometheus.Gauge
	dataLoads     *prometheus.CounterVec
	datasetCases  prometheus.Gauge
	lookups       *prometheus.CounterVec
	lookupLatency prometheus.Histogram

	// HTTP traffic.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec
	panicsRecovered     prometheus.Counter

	// Error breakdowns.
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Audit pipeline health.
	auditRecords     prometheus.Counter
	auditDropped     prometheus.Counter
	auditWriteErrors prometheus.Counter
	auditQueueDepth  prometheus.Gauge

	// Go runtime.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// The package registry carries only our families; the stock Go and
// process collectors are deliberately absent.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // single registry behind /metrics

var globalManager *Manager //nolint:gochecknoglobals // shared recorder for the package helpers

func init() { //nolint:gochecknoinits // wires the default manager to the package registry
	globalManager = NewManager(WithRegistry(customRegistry))
}

// gcPauseBuckets spans sub-millisecond pauses through full-second stalls.
var gcPauseBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // fixed bucket layout

// NewManager registers a fresh set of families and returns the Manager
// owning them. Registering the same families twice on one registry
// panics inside promauto, so tests pass WithRegistry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "ecgserve",
		subsystem: "api",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.register()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// register creates every family on the configured registry.
func (m *Manager) register() {
	auto := promauto.With(m.registry)

	m.dataLoaded = auto.NewGauge(m.gaugeOpts("data_loaded",
		"Whether the evaluation documents are loaded (1) or not (0)"))
	m.dataLoads = auto.NewCounterVec(m.counterOpts("data_loads_total",
		"Total number of load attempts by outcome"), []string{"outcome"})
	m.datasetCases = auto.NewGauge(m.gaugeOpts("dataset_cases",
		"Number of curated cases currently loaded"))
	m.lookups = auto.NewCounterVec(m.counterOpts("lookups_total",
		"Total number of data lookups by kind and outcome"), []string{"kind", "outcome"})
	m.lookupLatency = auto.NewHistogram(m.histogramOpts("lookup_latency_milliseconds",
		"Data lookup latency in milliseconds", m.buckets))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.buckets), []string{"endpoint", "method", "status_code"})
	m.rateLimited = auto.NewCounterVec(m.counterOpts("rate_limited_total",
		"Total number of requests rejected by the rate limiter"), []string{"endpoint"})
	m.panicsRecovered = auto.NewCounter(m.counterOpts("panics_recovered_total",
		"Total number of handler panics converted to 500 responses"))

	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Total number of errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.auditRecords = auto.NewCounter(m.counterOpts("audit_records_total",
		"Total number of audit records accepted for persistence"))
	m.auditDropped = auto.NewCounter(m.counterOpts("audit_records_dropped_total",
		"Total number of audit records dropped due to backpressure"))
	m.auditWriteErrors = auto.NewCounter(m.counterOpts("audit_write_errors_total",
		"Total number of failed audit store writes"))
	m.auditQueueDepth = auto.NewGauge(m.gaugeOpts("audit_queue_depth",
		"Current depth of the audit writer queue"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", gcPauseBuckets))
}

// Dataset helpers.

// UpdateDataLoaded sets whether the evaluation documents are loaded.
func UpdateDataLoaded(loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.dataLoaded.Set(v)
}

// RecordDataLoad records the outcome of a load attempt.
func RecordDataLoad(success bool) {
	if success {
		globalManager.dataLoads.WithLabelValues("success").Inc()
		return
	}
	globalManager.dataLoads.WithLabelValues("failure").Inc()
}

// UpdateDatasetCases sets the number of loaded cases.
func UpdateDatasetCases(count int) {
	globalManager.datasetCases.Set(float64(count))
}

// RecordLookup records a data lookup with kind and outcome labels.
func RecordLookup(kind, outcome string) {
	globalManager.lookups.WithLabelValues(kind, outcome).Inc()
}

// RecordLookupLatency records data lookup latency in milliseconds.
func RecordLookupLatency(latencyMs float64) {
	globalManager.lookupLatency.Observe(latencyMs)
}

// HTTP helpers.

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordPanicRecovered increments the recovered panic counter.
func RecordPanicRecovered() {
	globalManager.panicsRecovered.Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error against the endpoint it hit.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Audit helpers.

// RecordAuditRecord increments the accepted audit record counter.
func RecordAuditRecord() {
	globalManager.auditRecords.Inc()
}

// RecordAuditDropped increments the dropped audit record counter.
func RecordAuditDropped() {
	globalManager.auditDropped.Inc()
}

// RecordAuditWriteError increments the audit write error counter.
func RecordAuditWriteError() {
	globalManager.auditWriteErrors.Inc()
}

// UpdateAuditQueueDepth sets the current audit writer queue depth.
func UpdateAuditQueueDepth(depth int) {
	globalManager.auditQueueDepth.Set(float64(depth))
}

// Runtime helpers.

// UpdateSystemMemoryUsage sets the heap allocation gauge in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the package registry for mounting behind /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
