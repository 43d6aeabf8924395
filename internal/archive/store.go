// Package archive persists dispatched digests in SQLite for the history
// command and offline inspection. The dedup cache is deliberately NOT backed
// by this store; it stays in-memory only.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record is one dispatched digest.
type Record struct {
	ID        string
	Channel   string // source channel username
	Original  string // raw text before filtering
	Composed  string // the dispatched caption
	CreatedAt time.Time
}

// Store is a SQLite-backed digest archive.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS digests (
		id          TEXT PRIMARY KEY,
		channel     TEXT NOT NULL,
		original    TEXT,
		composed    TEXT NOT NULL,
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_digests_time ON digests(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save records a dispatched digest. A missing ID is generated.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digests (id, channel, original, composed, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Channel, rec.Original, rec.Composed, rec.CreatedAt,
	)
	return err
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, original, composed, created_at
		 FROM digests ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Channel, &r.Original, &r.Composed, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Prune deletes records older than the retention span and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM digests WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error { return s.db.Close() }
