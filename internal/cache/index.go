package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteIndex is the persistent fingerprint index.
type SQLiteIndex struct {
	db    *sql.DB
	clock func() time.Time
}

var _ Index = (*SQLiteIndex)(nil)

// OpenIndex opens or creates the index database at path.
func OpenIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	idx := &SQLiteIndex{db: db, clock: time.Now}
	if err := idx.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *SQLiteIndex) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS entries (
    fingerprint TEXT PRIMARY KEY,
    artifacts TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`
	if _, err := idx.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init index schema: %w", err)
	}
	return nil
}

// Get returns the artifact names stored for fingerprint.
func (idx *SQLiteIndex) Get(ctx context.Context, fingerprint string) ([]string, bool, error) {
	var raw string
	err := idx.db.QueryRowContext(ctx,
		`SELECT artifacts FROM entries WHERE fingerprint = ?`, fingerprint).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query index: %w", err)
	}

	var artifacts []string
	if err := json.Unmarshal([]byte(raw), &artifacts); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return artifacts, true, nil
}

// Put records the artifact names for fingerprint, replacing any earlier entry.
func (idx *SQLiteIndex) Put(ctx context.Context, fingerprint string, artifacts []string) error {
	raw, err := json.Marshal(artifacts)
	if err != nil {
		return err
	}
	_, err = idx.db.ExecContext(ctx,
		`INSERT INTO entries(fingerprint, artifacts, created_at) VALUES(?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET artifacts=excluded.artifacts, created_at=excluded.created_at`,
		fingerprint, string(raw), idx.clock().UTC())
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Delete removes the entry for fingerprint.
func (idx *SQLiteIndex) Delete(ctx context.Context, fingerprint string) error {
	_, err := idx.db.ExecContext(ctx, `DELETE FROM entries WHERE fingerprint = ?`, fingerprint)
	return err
}

// Len returns the number of entries.
func (idx *SQLiteIndex) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count index: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (idx *SQLiteIndex) Clear(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, `DELETE FROM entries`)
	return err
}

// Close releases underlying resources.
func (idx *SQLiteIndex) Close() error {
	return idx.db.Close()
}
