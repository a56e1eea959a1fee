// Package ratelimit implements the per-client request ceilings applied
// to the data routes.
package ratelimit

import "time"

// Option applies a configuration option to the fixedWindowLimiter.
type Option func(*fixedWindowLimiter)

// WithWindow sets the counting window size.
func WithWindow(d time.Duration) Option {
	return func(l *fixedWindowLimiter) {
		if d > 0 {
			l.windowSize = d
		}
	}
}

// WithLimit sets the default per-window ceiling for routes without a
// route-specific limit.
func WithLimit(n int) Option {
	return func(l *fixedWindowLimiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithRouteLimit sets a per-window ceiling for a single route.
func WithRouteLimit(route string, n int) Option {
	return func(l *fixedWindowLimiter) {
		if route != "" && n > 0 {
			l.routeLimits[route] = n
		}
	}
}

// WithMaxEntries bounds the number of tracked (route, client) windows.
// When the bound is reached, windows from completed periods are evicted.
func WithMaxEntries(n int) Option {
	return func(l *fixedWindowLimiter) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *fixedWindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}
