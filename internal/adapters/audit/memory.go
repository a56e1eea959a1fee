// Package audit persists a trail of the requests the service answered.
package audit

import (
	"context"
	"sync"
)

// Default in-memory trail size.
const defaultMaxRecords = 1000

// MemoryStore keeps the trail in a fixed-size ring buffer. It is the
// fallback when no database path is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	maxRows int
	head    int // next write position
	count   int
}

// NewMemoryStore creates an in-memory store holding at most maxRows records.
func NewMemoryStore(maxRows int) *MemoryStore {
	if maxRows < 1 {
		maxRows = defaultMaxRecords
	}
	return &MemoryStore{
		records: make([]Record, maxRows),
		maxRows: maxRows,
	}
}

// Insert appends one record, overwriting the oldest when full.
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.head] = rec
	s.head = (s.head + 1) % s.maxRows
	if s.count < s.maxRows {
		s.count++
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.head - 1 - i + s.maxRows) % s.maxRows
		out = append(out, s.records[idx])
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(s.count), nil
}

// Summarize aggregates the buffered records.
func (s *MemoryStore) Summarize(_ context.Context) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Total:         int64(s.count),
		ByStatusClass: make(map[string]int64),
	}

	var totalDuration int64
	routes := make(map[string]int64)
	for i := 0; i < s.count; i++ {
		idx := (s.head - 1 - i + s.maxRows) % s.maxRows
		rec := s.records[idx]
		sum.ByStatusClass[statusClass(rec.Status)]++
		totalDuration += rec.DurationMS
		if rec.DurationMS > sum.MaxDurationMS {
			sum.MaxDurationMS = rec.DurationMS
		}
		routes[rec.Route]++
	}
	if s.count > 0 {
		sum.AvgDurationMS = float64(totalDuration) / float64(s.count)
	}
	sum.TopRoutes = topRoutes(routes)
	return sum, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
