package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cardiolab/ecgserve/internal/adapters/http/api"
	"github.com/cardiolab/ecgserve/internal/adapters/http/site"
	"github.com/cardiolab/ecgserve/internal/adapters/http/swagger"
	app "github.com/cardiolab/ecgserve/internal/app"
	"github.com/cardiolab/ecgserve/internal/config"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/cardiolab/ecgserve/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server timeouts and background refresh cadence.
const (
	readTimeout          = 10 * time.Second
	readHeaderTimeout    = 5 * time.Second
	writeTimeout         = 15 * time.Second
	idleTimeout          = 60 * time.Second
	shutdownTimeout      = 20 * time.Second
	runtimeStatsInterval = 10 * time.Second
	serviceStatsInterval = 5 * time.Second

	nanosPerMilli = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("ecgserve: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// The registry serves our curated families only; the stock Go and
	// process collectors would duplicate the runtime gauges below.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithDataDir(cfg.DataDir),
		app.WithECGImageDir(cfg.ECGImageDir),
		app.WithAttributionDir(cfg.AttributionDir),
		app.WithAuditPath(cfg.AuditPath),
		app.WithAuditMaxRecords(cfg.AuditMaxRecords),
		app.WithAuditQueueSize(cfg.AuditQueueSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go every(ctx, runtimeStatsInterval, publishRuntimeStats)
	go every(ctx, serviceStatsInterval, func() { publishServiceStats(svc) })

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", logger.String("addr", cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info(ctx, "shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildMux assembles the full route table: the dashboard, the API
// reference, the pre-rendered artifact trees, the Prometheus endpoint,
// and the result API itself.
func buildMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	// Plot and attribution images referenced by the case manifests.
	mux.Handle(model.ECGImagePrefix, http.StripPrefix(model.ECGImagePrefix,
		http.FileServer(http.Dir(cfg.ECGImageDir))))
	mux.Handle(model.AttributionPrefix, http.StripPrefix(model.AttributionPrefix,
		http.FileServer(http.Dir(cfg.AttributionDir))))

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	limiter := api.NewDefaultLimiter(cfg.RateLimitPerMinute, cfg.ReportRateLimitPerMinute, cfg.RateLimitMaxClients)
	api.NewServer(svc, svc,
		api.WithRateLimiter(limiter),
		api.WithCORSOrigin(cfg.CORSAllowOrigin),
	).Register(ctx, mux)

	return mux
}

// every invokes fn on a fixed interval until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// publishRuntimeStats samples the Go runtime into the system gauges.
func publishRuntimeStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average pause across all collections so far.
		metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosPerMilli)
	}
}

// publishServiceStats mirrors service state into the dataset gauges.
// GetStats refreshes the audit queue gauge as a side effect.
func publishServiceStats(svc *app.Service) {
	stats := svc.GetStats()

	if loaded, ok := stats["data_loaded"].(bool); ok {
		metrics.UpdateDataLoaded(loaded)
	}
	if n, ok := stats["case_count"].(int); ok {
		metrics.UpdateDatasetCases(n)
	}
}
