// Package probe drives end-to-end consistency checks against a running
// evaluation results server: it walks every case through each of its
// projections and confirms the server tells one coherent story.
package probe

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cardiolab/ecgserve/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "probe_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the API probe.
func ShowHelp() {
	os.Stdout.WriteString(`ECG Evaluation API Probe
========================

A concurrent consistency checker for the evaluation results API. It
verifies that the case listing, case details, predictions, clinical
reports and artifact listings all agree with each other, and that the
analytics routes answer with their expected shapes.

Usage:
  go run cmd/apiprobe/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -hammer
        Send a request burst to confirm the rate limiter engages
  -output string
        Output file for probe findings (default: probe_findings_TIMESTAMP.json)
  -log string
        Log file for probe output (default: probe_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

The probe honors 429 responses: it sleeps out the Retry-After delay
and retries, so walking a large dataset against a strictly limited
server is slow. Raise ECGSERVE_RATE_LIMIT_PER_MINUTE on the server
before probing large datasets.

Examples:
  # Probe a local server with default settings
  go run cmd/apiprobe/main.go

  # Probe a remote server with more workers
  go run cmd/apiprobe/main.go -url http://10.0.0.5:8000 -workers 8

  # Confirm the rate limiter rejects a burst
  go run cmd/apiprobe/main.go -hammer

  # Keep the findings in a named file
  go run cmd/apiprobe/main.go -output findings.json
`)
}
