// Package postgres archives console log entries to a relational table. The
// ring only retains the most recent entries; the archive keeps everything.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"opsconsole/internal/eventbus"
)

const schema = `
CREATE TABLE IF NOT EXISTS console_log_archive (
    id         UUID PRIMARY KEY,
    seq        BIGINT NOT NULL,
    level      TEXT NOT NULL,
    message    TEXT NOT NULL,
    logged_at  TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Sink appends every ring entry to console_log_archive.
type Sink struct {
	db *sql.DB
}

// New opens the database and ensures the archive table exists.
func New(databaseURL string) (*Sink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Sink{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection; used by integration tests.
func NewWithDB(db *sql.DB) (*Sink, error) {
	s := &Sink{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (s *Sink) Write(ctx context.Context, e eventbus.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO console_log_archive (id, seq, level, message, logged_at)
         VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), int64(e.Seq), string(e.Level), e.Message, e.Time,
	)
	if err != nil {
		return fmt.Errorf("archive entry %d: %w", e.Seq, err)
	}
	return nil
}

// Count reports archived rows; used by integration tests.
func (s *Sink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM console_log_archive`).Scan(&n)
	return n, err
}

func (s *Sink) Close() error {
	return s.db.Close()
}
