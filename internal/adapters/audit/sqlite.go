// Package audit persists a trail of the requests the service answered.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/cardiolab/ecgserve/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    route TEXT NOT NULL,
    status INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    client TEXT,
    bytes_out INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_audit_log_ts ON audit_log(ts);
CREATE INDEX IF NOT EXISTS idx_audit_log_route_ts ON audit_log(route, ts);
`

// Batch size for pruning the oldest rows.
const pruneBatchSize = 500

// SQLiteStore keeps the trail in a SQLite database with WAL enabled.
type SQLiteStore struct {
	db      *sql.DB
	maxRows int
	pruneMu sync.Mutex
	pruneWG sync.WaitGroup
	logger  logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. SQLite works best with a single writer, so the pool is pinned
// to one connection.
func NewSQLiteStore(path string, opts ...StoreOption) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpenDatabase, dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal=WAL&_sync=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenDatabase, filepath.Base(path), err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrApplySchema, err)
	}

	s := &SQLiteStore{
		db:      db,
		maxRows: defaultMaxRecords,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Insert appends one record and triggers a best-effort prune.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, ts, method, path, route, status, duration_ms, client, bytes_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.Timestamp.UnixMilli(), rec.Method, rec.Path, rec.Route,
		rec.Status, rec.DurationMS, rec.Client, rec.BytesOut,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}

	s.pruneWG.Add(1)
	go func() {
		defer s.pruneWG.Done()
		s.maybePrune()
	}()

	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = defaultMaxRecords
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, method, path, route, status, duration_ms, client, bytes_out
		FROM audit_log
		ORDER BY ts DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts int64
		var client sql.NullString
		if err := rows.Scan(&rec.ID, &ts, &rec.Method, &rec.Path, &rec.Route,
			&rec.Status, &rec.DurationMS, &client, &rec.BytesOut); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		rec.Client = client.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&count)
	return count, err
}

// Summarize aggregates the stored records with SQL.
func (s *SQLiteStore) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{ByStatusClass: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(duration_ms), 0), COALESCE(MAX(duration_ms), 0)
		FROM audit_log
	`).Scan(&sum.Total, &sum.AvgDurationMS, &sum.MaxDurationMS)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize audit records: %w", err)
	}

	classRows, err := s.db.QueryContext(ctx, `
		SELECT status / 100, COUNT(*)
		FROM audit_log
		GROUP BY status / 100
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize audit statuses: %w", err)
	}
	defer classRows.Close()
	for classRows.Next() {
		var class int
		var n int64
		if err := classRows.Scan(&class, &n); err != nil {
			return Summary{}, fmt.Errorf("scan audit status class: %w", err)
		}
		sum.ByStatusClass[fmt.Sprintf("%dxx", class)] = n
	}
	if err := classRows.Err(); err != nil {
		return Summary{}, err
	}

	routeRows, err := s.db.QueryContext(ctx, `
		SELECT route, COUNT(*) AS n
		FROM audit_log
		GROUP BY route
		ORDER BY n DESC, route ASC
		LIMIT ?
	`, topRouteLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize audit routes: %w", err)
	}
	defer routeRows.Close()
	for routeRows.Next() {
		var rc RouteCount
		if err := routeRows.Scan(&rc.Route, &rc.Count); err != nil {
			return Summary{}, fmt.Errorf("scan audit route count: %w", err)
		}
		sum.TopRoutes = append(sum.TopRoutes, rc)
	}
	return sum, routeRows.Err()
}

// Close waits for in-flight prunes and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.pruneWG.Wait()
	return s.db.Close()
}

// maybePrune deletes the oldest rows when the trail exceeds maxRows.
func (s *SQLiteStore) maybePrune() {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	ctx := context.Background()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&count); err != nil {
		s.log().Error(ctx, "audit prune count failed", logger.Error(err))
		return
	}
	if count <= s.maxRows {
		return
	}

	toDelete := count - s.maxRows
	if toDelete > pruneBatchSize {
		toDelete = pruneBatchSize
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM audit_log WHERE id IN (
			SELECT id FROM audit_log ORDER BY ts ASC LIMIT ?
		)
	`, toDelete)
	if err != nil {
		s.log().Error(ctx, "audit prune failed", logger.Error(err))
		return
	}
	s.log().Debug(ctx, "pruned audit records", logger.Int("deleted", toDelete))
}

func (s *SQLiteStore) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get().Named("audit")
}
