package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/google/uuid"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete probe.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting evaluation API probe",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("hammer", config.Hammer),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Retrieve the case listing
	summaries, err := listCases(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("case listing failed: %w", err)
	}

	// Step 3: Verify every case concurrently
	if err := walkCases(ctx, client, config, summaries, stats); err != nil {
		return fmt.Errorf("case verification failed: %w", err)
	}

	// Step 4: Show how the dataset distributes
	displayClassBreakdown(summaries, config.Verbose)

	// Step 5: Check the analytics routes
	if err := checkAnalyticsRoutes(ctx, client, config, stats); err != nil {
		return fmt.Errorf("analytics check failed: %w", err)
	}

	// Step 6: Optionally confirm the rate limiter engages
	if config.Hammer {
		checkRateLimiter(ctx, client, config, stats)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.RequestsSent = client.requests.Load()
	stats.RateLimitHits = client.rateLimited.Load()
	stats.TotalLatency = time.Duration(client.totalLatencyNs.Load())
	stats.MaxLatency = time.Duration(client.maxLatencyNs.Load())

	// Step 7: Save findings to file
	if err := saveFindingsToFile(ctx, config, stats); err != nil {
		logger.Get().Warn(ctx, "failed to save findings to file", logger.Error(err))
	}

	displayFinalStats(stats)

	if len(stats.Mismatches) > 0 {
		return fmt.Errorf("%d consistency problems found", len(stats.Mismatches))
	}

	logger.Get().Info(ctx, "probe completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running with its data loaded.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	var health Health
	status, err := getJSON(ctx, client, config.BaseURL+"/health", &health)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	if !health.DataLoaded {
		return fmt.Errorf("evaluation data not loaded (status %q)", health.Status)
	}

	logger.Get().Info(ctx, "service is healthy",
		logger.String("version", health.Version),
		logger.Bool("dataLoaded", health.DataLoaded))
	return nil
}

// Analytics sections may legitimately be absent from the evaluation
// documents, in which case their routes answer 404.
var analyticsRoutes = []string{
	"/metrics-summary",
	"/robustness-summary",
	"/calibration",
	"/roc-pr-curves",
	"/demographic-analysis",
}

// checkAnalyticsRoutes exercises the model performance routes.
func checkAnalyticsRoutes(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	log.Printf("📈 Checking %d analytics routes...", len(analyticsRoutes))

	for _, route := range analyticsRoutes {
		var payload map[string]interface{}
		status, err := getJSON(ctx, client, config.BaseURL+route, &payload)
		switch {
		case status == StatusNotFound:
			log.Printf("⚠️  %s: section absent from the evaluation documents", route)
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", route, err)
		case len(payload) == 0:
			stats.Mismatches = append(stats.Mismatches, route+": empty payload")
			continue
		}

		if problems := checkAnalyticsPayload(route, payload); len(problems) > 0 {
			stats.Mismatches = append(stats.Mismatches, problems...)
			continue
		}

		stats.AnalyticsChecked++
		if config.Verbose {
			log.Printf("✅ %s: %d top-level keys", route, len(payload))
		}
	}

	log.Printf("✅ Analytics routes checked: %d", stats.AnalyticsChecked)
	return nil
}

// checkAnalyticsPayload verifies the known sections carry their
// required keys.
func checkAnalyticsPayload(route string, payload map[string]interface{}) []string {
	required := map[string][]string{
		"/metrics-summary":    {"model_name", "performance_metrics", "test_cases"},
		"/robustness-summary": {"jitter_levels", "scale_factors"},
		"/roc-pr-curves":      {"roc_curves", "pr_curves"},
	}

	var problems []string
	for _, key := range required[route] {
		if _, ok := payload[key]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing %q", route, key))
		}
	}
	return problems
}

// checkRateLimiter sends a burst of unthrottled requests and confirms
// the server starts rejecting them with 429 and a Retry-After hint.
func checkRateLimiter(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) {
	log.Printf("🔨 Bursting %d requests at /cases to engage the rate limiter...", HammerBurstSize)

	url := config.BaseURL + "/cases"
	for i := 0; i < HammerBurstSize; i++ {
		resp, err := client.Get(ctx, url)
		if err != nil {
			stats.Mismatches = append(stats.Mismatches, fmt.Sprintf("rate limit burst: request %d failed: %v", i+1, err))
			return
		}

		status := resp.StatusCode
		retryHint := resp.Header.Get("Retry-After")
		_, _ = readResponseBody(resp)

		if status == StatusTooManyRequests {
			if retryHint == "" {
				stats.Mismatches = append(stats.Mismatches, "rate limit burst: 429 without a Retry-After header")
				return
			}
			log.Printf("✅ Rate limiter engaged after %d requests (Retry-After: %ss)", i+1, retryHint)
			return
		}
	}

	stats.Mismatches = append(stats.Mismatches, fmt.Sprintf("rate limit burst: no 429 within %d requests", HammerBurstSize))
}

// findings is the JSON document written at the end of a run.
type findings struct {
	RunID         string   `json:"run_id"`
	BaseURL       string   `json:"base_url"`
	StartedAt     string   `json:"started_at"`
	DurationMs    int64    `json:"duration_ms"`
	CasesListed   int      `json:"cases_listed"`
	CasesVerified int      `json:"cases_verified"`
	CasesFailed   int      `json:"cases_failed"`
	Warnings      int      `json:"warnings"`
	Mismatches    []string `json:"mismatches"`
	RequestsSent  int64    `json:"requests_sent"`
	RateLimitHits int64    `json:"rate_limit_hits"`
	AvgLatencyMs  float64  `json:"avg_latency_ms"`
	MaxLatencyMs  float64  `json:"max_latency_ms"`
}

// saveFindingsToFile writes the probe outcome to a JSON file.
func saveFindingsToFile(ctx context.Context, config *Config, stats *Stats) error {
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "probe_findings_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	mismatches := stats.Mismatches
	if mismatches == nil {
		mismatches = []string{}
	}

	doc := findings{
		RunID:         stats.RunID,
		BaseURL:       config.BaseURL,
		StartedAt:     stats.StartTime.UTC().Format(time.RFC3339),
		DurationMs:    stats.Duration.Milliseconds(),
		CasesListed:   stats.CasesListed,
		CasesVerified: stats.CasesVerified,
		CasesFailed:   stats.CasesFailed,
		Warnings:      stats.Warnings,
		Mismatches:    mismatches,
		RequestsSent:  stats.RequestsSent,
		RateLimitHits: stats.RateLimitHits,
		AvgLatencyMs:  avgLatencyMs(stats),
		MaxLatencyMs:  float64(stats.MaxLatency) / float64(time.Millisecond),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}

	logger.Get().Info(ctx, "findings saved to file", logger.String("filename", filename))
	return nil
}

// avgLatencyMs returns the mean request latency in milliseconds.
func avgLatencyMs(stats *Stats) float64 {
	if stats.RequestsSent == 0 {
		return 0
	}
	return float64(stats.TotalLatency) / float64(stats.RequestsSent) / float64(time.Millisecond)
}

// displayFinalStats prints the final probe statistics.
func displayFinalStats(stats *Stats) {
	var cleanRate, requestsPerSecond float64

	checked := stats.CasesVerified + stats.CasesFailed
	if checked > 0 {
		cleanRate = float64(stats.CasesVerified) / float64(checked) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("casesListed", stats.CasesListed),
		logger.Int("casesVerified", stats.CasesVerified),
		logger.Int("casesFailed", stats.CasesFailed),
		logger.Int("warnings", stats.Warnings),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Int("analyticsChecked", stats.AnalyticsChecked),
		logger.Int64("requestsSent", stats.RequestsSent),
		logger.Int64("rateLimitHits", stats.RateLimitHits),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("cleanRate", cleanRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
		logger.Float64("avgLatencyMs", avgLatencyMs(stats)),
		logger.Float64("maxLatencyMs", float64(stats.MaxLatency)/float64(time.Millisecond)))
}
