// Package audit persists a trail of the requests the service answered.
//
// Handlers never write to the trail directly. They hand records to an
// asynchronous Writer which drains into a Store, so a slow disk cannot
// stall the request path.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Record is one answered request.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Route      string    `json:"route"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Client     string    `json:"client"`
	BytesOut   int64     `json:"bytes_out"`
}

// NewRecord builds a record with a fresh id and the current time.
func NewRecord(method, path, route string, status int, duration time.Duration, client string, bytesOut int64) Record {
	return Record{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Method:     method,
		Path:       path,
		Route:      route,
		Status:     status,
		DurationMS: duration.Milliseconds(),
		Client:     client,
		BytesOut:   bytesOut,
	}
}

// Store is where the trail ends up.
type Store interface {
	// Insert appends one record.
	Insert(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Summarize aggregates the stored records.
	Summarize(ctx context.Context) (Summary, error)

	// Close releases the underlying storage.
	Close() error
}

// Number of routes a summary reports.
const topRouteLimit = 5

// Summary is an aggregate view of the trail for the stats endpoint.
type Summary struct {
	Total         int64            `json:"total"`
	ByStatusClass map[string]int64 `json:"by_status_class"`
	AvgDurationMS float64          `json:"avg_duration_ms"`
	MaxDurationMS int64            `json:"max_duration_ms"`
	TopRoutes     []RouteCount     `json:"top_routes"`
}

// RouteCount is one row of the top-routes table.
type RouteCount struct {
	Route string `json:"route"`
	Count int64  `json:"count"`
}

// statusClass folds a status code into its class ("2xx", "4xx", ...).
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

// topRoutes ranks routes busiest first, ties broken by name.
func topRoutes(counts map[string]int64) []RouteCount {
	ranked := make([]RouteCount, 0, len(counts))
	for route, n := range counts {
		ranked = append(ranked, RouteCount{Route: route, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Route < ranked[j].Route
	})
	if len(ranked) > topRouteLimit {
		ranked = ranked[:topRouteLimit]
	}
	return ranked
}
