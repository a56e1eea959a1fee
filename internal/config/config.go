// Package config defines the service configuration and its loading
// pipeline. Defaults live in New; Load layers an optional YAML file and
// the environment on top and validates the result.
package config

import (
	"context"
)

// Config holds every tunable the process reads at startup.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataDir holds the evaluation documents loaded at startup.
	DataDir string `koanf:"data_dir"`

	// ECGImageDir holds the pre-rendered ECG plots.
	ECGImageDir string `koanf:"ecg_image_dir"`

	// AttributionDir holds the pre-rendered attribution maps.
	AttributionDir string `koanf:"attribution_dir"`

	// RateLimitPerMinute caps per-client requests on the data routes.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// ReportRateLimitPerMinute caps per-client report generation.
	ReportRateLimitPerMinute int `koanf:"report_rate_limit_per_minute"`

	// RateLimitMaxClients bounds the tracked rate-limit windows.
	RateLimitMaxClients int `koanf:"rate_limit_max_clients"`

	// CORSAllowOrigin is served as Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`

	// AuditPath points the audit trail at a SQLite file. When empty the
	// trail stays in memory and is lost on restart.
	AuditPath string `koanf:"audit_path"`

	// AuditMaxRecords caps the retained audit records.
	AuditMaxRecords int `koanf:"audit_max_records"`

	// AuditQueueSize bounds the in-memory audit write queue.
	AuditQueueSize int `koanf:"audit_queue_size"`
}

// New returns the built-in defaults. The context keeps the constructor
// signature uniform across the project and is not used yet.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":8000",
		DataDir:                  "evaluation_results",
		ECGImageDir:              "ecg_images",
		AttributionDir:           "attribution_maps",
		RateLimitPerMinute:       10,
		ReportRateLimitPerMinute: 5,
		RateLimitMaxClients:      10_000,
		CORSAllowOrigin:          "*",
		AuditPath:                "",
		AuditMaxRecords:          1000,
		AuditQueueSize:           1024,
	}
}
