package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	props      BLOB NOT NULL,
	html       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps snapshots in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	busy   time.Duration
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the store logger.
func WithSQLiteLogger(l *slog.Logger) SQLiteOption {
	return func(s *SQLiteStore) { s.logger = l }
}

// WithBusyTimeout sets how long writers wait on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) { s.busy = d }
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{logger: slog.Default(), busy: 10 * time.Second}
	for _, o := range opts {
		o(s)
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)",
		path, s.busy.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	s.db = db
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	s.logger.Debug("snapshot db opened", "path", path)
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `SELECT props, html FROM snapshots WHERE id = ?`, id).
		Scan(&rec.Props, &rec.HTML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, rec *Record) error {
	props := rec.Props
	if props == nil {
		props = []byte("null")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (id, props, html, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET props = excluded.props, html = excluded.html, updated_at = excluded.updated_at`,
		id, props, rec.HTML, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
