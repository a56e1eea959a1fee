// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardiolab/ecgserve/internal/adapters/audit"
	"github.com/cardiolab/ecgserve/internal/domain/ratelimit"
	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/cardiolab/ecgserve/pkg/metrics"
)

type contextKey string

// requestIDKey carries the request id through the handler chain.
const requestIDKey contextKey = "request_id"

// RequestID returns the id assigned to this request, or "" outside the chain.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware assigns each request an id, honoring one supplied
// by the caller, and echoes it back in the response headers.
func RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequestLogMiddleware emits one structured log line per request and
// hands a record to the audit trail.
func RequestLogMiddleware(next http.HandlerFunc, route string, auditor Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		client := clientKey(r)
		logger.Get().Named("http").Info(r.Context(), "request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("took", duration),
			logger.String("client", client),
			logger.String("request_id", RequestID(r.Context())),
		)

		if auditor != nil {
			entry := audit.NewRecord(r.Method, r.URL.Path, route, rec.status, duration, client, rec.bytes)
			auditor.Audit(r.Context(), entry)
		}
	}
}

// RecoverMiddleware converts a handler panic into a 500 response.
func RecoverMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.RecordPanicRecovered()
				metrics.RecordErrorByEndpoint(endpoint, r.Method, "panic")
				logger.Get().Named("http").Error(r.Context(), "panic recovered",
					logger.Any("panic", rec),
					logger.String("path", r.URL.Path),
					logger.String("request_id", RequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// CORSMiddleware sets the allow headers and answers OPTIONS preflights.
func CORSMiddleware(next http.HandlerFunc, origin string) http.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RateLimitMiddleware rejects requests over the per-route ceiling with
// 429 and a Retry-After header.
func RateLimitMiddleware(next http.HandlerFunc, route string, limiter ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, retryAfter := limiter.Allow(r.Context(), route, clientKey(r))
		if !allowed {
			metrics.RecordRateLimited(route)
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate_limited",
				fmt.Errorf("%w: %d per minute on %s", ErrRateLimited, limiter.Limit(route), route))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// MetricsMiddleware records request count, duration, and the error
// families for one endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Reuse the recorder when an outer middleware already installed one.
		rec, ok := w.(*statusRecorder)
		if !ok {
			rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		}

		next.ServeHTTP(rec, r)

		elapsed := float64(time.Since(start).Milliseconds())
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsed)

		if rec.status >= http.StatusBadRequest {
			errType, severity := classifyStatus(rec.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errType)
			metrics.RecordErrorByType(errType, severity)
		}
	}
}

// classifyStatus buckets an error response for the error families.
func classifyStatus(code int) (errType, severity string) {
	severity = "medium"
	if code >= http.StatusInternalServerError {
		severity = "high"
	}

	switch {
	case code == http.StatusServiceUnavailable:
		return "service_unavailable", severity
	case code >= http.StatusInternalServerError:
		return "server_error", severity
	case code == http.StatusTooManyRequests:
		return "rate_limit", severity
	case code == http.StatusUnprocessableEntity:
		return "validation_error", severity
	case code == http.StatusNotFound:
		return "not_found", severity
	default:
		return "client_error", severity
	}
}

// clientKey identifies the caller for rate limiting and the audit trail:
// the first X-Forwarded-For hop when present, else the remote host.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder wraps http.ResponseWriter to capture status code and size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
