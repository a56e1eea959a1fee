// Package ratelimit implements the per-client request ceilings applied
// to the data routes.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default limiter configuration constants.
const (
	defaultWindow     = time.Minute
	defaultLimit      = 10
	defaultMaxEntries = 10000
)

// Limiter decides whether a request identified by a (route, client) pair
// fits inside the current window.
type Limiter interface {
	// Allow records an attempt and reports whether it fits the window.
	// When the attempt is rejected, retryAfter is the time remaining in
	// the current window.
	Allow(ctx context.Context, route, client string) (allowed bool, retryAfter time.Duration)

	// Limit returns the ceiling applied to route.
	Limit(route string) int

	// Size returns the number of tracked (route, client) windows.
	Size() int64
}

// window is one fixed counting window for a (route, client) pair.
type window struct {
	start time.Time
	count int
}

// fixedWindowLimiter implements Limiter with per-key counters over
// wall-clock aligned windows. Counters reset when their window ends; no
// partial credit carries across window boundaries.
type fixedWindowLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	routeLimits map[string]int
	limit       int
	windowSize  time.Duration
	maxEntries  int
	size        atomic.Int64
	now         func() time.Time
}

// NewFixedWindow creates a fixed-window limiter with configuration options.
func NewFixedWindow(opts ...Option) Limiter {
	l := &fixedWindowLimiter{
		windows:     make(map[string]*window),
		routeLimits: make(map[string]int),
		limit:       defaultLimit,
		windowSize:  defaultWindow,
		maxEntries:  defaultMaxEntries,
		now:         time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow records an attempt for the (route, client) pair.
func (l *fixedWindowLimiter) Allow(_ context.Context, route, client string) (bool, time.Duration) {
	key := route + "|" + client
	now := l.now()
	start := now.Truncate(l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		if len(l.windows) >= l.maxEntries {
			l.evictStale(now)
		}
		// Still full after dropping completed windows: every tracked
		// entry is live, so evict an arbitrary one. The cap must hold
		// even when a flood of distinct clients arrives in one window.
		if len(l.windows) >= l.maxEntries {
			l.evictOne()
		}
		w = &window{start: start}
		l.windows[key] = w
		l.size.Store(int64(len(l.windows)))
	}

	// A stale window is reused rather than reallocated.
	if w.start.Before(start) {
		w.start = start
		w.count = 0
	}

	if w.count >= l.limitFor(route) {
		return false, start.Add(l.windowSize).Sub(now)
	}
	w.count++
	return true, 0
}

// Limit returns the ceiling applied to route.
func (l *fixedWindowLimiter) Limit(route string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitFor(route)
}

// limitFor resolves the route-specific ceiling. Must be called with l.mu held.
func (l *fixedWindowLimiter) limitFor(route string) int {
	if limit, ok := l.routeLimits[route]; ok {
		return limit
	}
	return l.limit
}

// evictStale drops every window that ended before now. Must be called
// with l.mu held.
func (l *fixedWindowLimiter) evictStale(now time.Time) {
	cutoff := now.Truncate(l.windowSize)
	for key, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, key)
		}
	}
	l.size.Store(int64(len(l.windows)))
}

// evictOne removes a single window chosen by map iteration order. Must
// be called with l.mu held.
func (l *fixedWindowLimiter) evictOne() {
	for key := range l.windows {
		delete(l.windows, key)
		break
	}
	l.size.Store(int64(len(l.windows)))
}

// Size returns the current number of tracked windows.
func (l *fixedWindowLimiter) Size() int64 {
	return l.size.Load()
}
