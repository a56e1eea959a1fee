// Package audit persists a trail of the requests the service answered.
package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cardiolab/ecgserve/pkg/logger"
	"github.com/cardiolab/ecgserve/pkg/metrics"
)

// Default writer configuration constants.
const (
	defaultQueueSize = 1024
	drainTimeout     = 5 * time.Second
)

// Writer decouples the request path from trail storage. Records are
// enqueued without blocking; a single goroutine drains them into the
// Store. When the queue is full the record is dropped and counted.
type Writer struct {
	store     Store
	queue     chan Record
	queueSize int
	dropped   atomic.Int64

	// Shutdown control
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	logger logger.Logger
}

// NewWriter creates a writer around store and starts its drain loop.
func NewWriter(store Store, opts ...Option) *Writer {
	w := &Writer{
		store:     store,
		queueSize: defaultQueueSize,
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.queue = make(chan Record, w.queueSize)
	metrics.UpdateAuditQueueDepth(0)

	go w.drain()

	return w
}

// Record enqueues one record.
// Returns false if the writer is closed or the queue is full.
func (w *Writer) Record(ctx context.Context, rec Record) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.drop()
		return false
	}

	select {
	case w.queue <- rec:
		metrics.RecordAuditRecord()
		metrics.UpdateAuditQueueDepth(len(w.queue))
		return true
	case <-ctx.Done():
		w.drop()
		return false
	default:
		w.drop()
		return false
	}
}

func (w *Writer) drop() {
	w.dropped.Add(1)
	metrics.RecordAuditDropped()
}

// Depth returns the current number of queued records.
func (w *Writer) Depth() int {
	return len(w.queue)
}

// Dropped returns how many records were rejected since startup.
func (w *Writer) Dropped() int64 {
	return w.dropped.Load()
}

// Store exposes the underlying trail for read access.
func (w *Writer) Store() Store {
	return w.store
}

// Close stops accepting records, waits for the queue to drain, and
// closes the store. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-time.After(drainTimeout):
		w.log().Warn(context.Background(), "audit drain timed out")
	}

	return w.store.Close()
}

// drain moves records from the queue into the store until the queue is
// closed and empty.
func (w *Writer) drain() {
	defer close(w.done)

	ctx := context.Background()
	for rec := range w.queue {
		if err := w.store.Insert(ctx, rec); err != nil {
			metrics.RecordAuditWriteError()
			w.log().Error(ctx, "audit insert failed",
				logger.String("record_id", rec.ID),
				logger.Error(err),
			)
		}
		metrics.UpdateAuditQueueDepth(len(w.queue))
	}
}

func (w *Writer) log() logger.Logger {
	if w.logger != nil {
		return w.logger
	}
	return logger.Get().Named("audit")
}
