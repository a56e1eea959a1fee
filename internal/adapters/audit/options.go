// Package audit persists a trail of the requests the service answered.
package audit

import "github.com/cardiolab/ecgserve/pkg/logger"

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithQueueSize sets the writer queue capacity.
func WithQueueSize(size int) Option {
	return func(w *Writer) {
		if size > 0 {
			w.queueSize = size
		}
	}
}

// WithLogger sets the logger used by the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// StoreOption applies a configuration option to the SQLiteStore.
type StoreOption func(*SQLiteStore)

// WithMaxRows caps how many records the store retains before pruning.
func WithMaxRows(n int) StoreOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithStoreLogger sets the logger used by the store.
func WithStoreLogger(l logger.Logger) StoreOption {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}
