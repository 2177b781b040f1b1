// Package sqlite keeps statistics in a local SQLite file so a terminal player
// keeps their record between runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // driver: sqlite
)

const defaultDSN = "file:moviequiz.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS statistics (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// KVStore is an app.KeyValueStore over a SQLite table.
type KVStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
// An empty path uses moviequiz.db in the working directory.
func Open(ctx context.Context, path string) (*KVStore, error) {
	dsn := defaultDSN
	if path != "" {
		dsn = "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &KVStore{db: db}, nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

func (s *KVStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := `SELECT key, value FROM statistics WHERE key IN (?` + strings.Repeat(",?", len(keys)-1) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *KVStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for k, v := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO statistics (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
