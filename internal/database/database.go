package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kraken-orderbook-watcher/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// Service is the anomaly journal: feed messages that could not be applied to
// a book. Book state itself is never stored.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	RecordAnomaly(ctx context.Context, anomaly domain.Anomaly) error

	// RecentAnomalies returns up to limit anomalies, newest first.
	RecentAnomalies(ctx context.Context, limit int) ([]domain.Anomaly, error)

	Close() error
}

type service struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS anomalies (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	pair       TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL,
	raw        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS anomalies_created_at ON anomalies (created_at);
`

const maxRawLength = 4096

func New(path string) (Service, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database %s: %w", path, err)
	}

	return &service{db: db, path: path}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM anomalies").Scan(&count); err == nil {
		stats["anomalies"] = strconv.FormatInt(count, 10)
	}

	return stats
}

func (s *service) RecordAnomaly(ctx context.Context, anomaly domain.Anomaly) error {
	raw, _ := anomaly.RawPrefix(maxRawLength)
	createdAt := anomaly.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO anomalies (exchange, kind, pair, reason, raw, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		anomaly.Exchange, anomaly.Kind, anomaly.Pair, anomaly.Reason, raw, createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record anomaly: %w", err)
	}
	return nil
}

func (s *service) RecentAnomalies(ctx context.Context, limit int) ([]domain.Anomaly, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, exchange, kind, pair, reason, raw, created_at FROM anomalies ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	anomalies := make([]domain.Anomaly, 0)
	for rows.Next() {
		var anomaly domain.Anomaly
		var createdAt int64
		if err := rows.Scan(&anomaly.ID, &anomaly.Exchange, &anomaly.Kind, &anomaly.Pair, &anomaly.Reason, &anomaly.Raw, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		anomaly.CreatedAt = time.Unix(0, createdAt).UTC()
		anomalies = append(anomalies, anomaly)
	}
	return anomalies, rows.Err()
}

// Close closes the database connection.
func (s *service) Close() error {
	return s.db.Close()
}
