package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS saves (
	id         TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SqliteStore keeps records as JSON blobs in a single sqlite table.
type SqliteStore[T ValidatingSpec] struct {
	db *sql.DB
}

func OpenSqliteStore[T ValidatingSpec](path string) (*SqliteStore[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SqliteStore[T]{db: db}, nil
}

func (s *SqliteStore[T]) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SqliteStore[T]) Save(ctx context.Context, id Identifier, v T) error {
	data, err := encodeAsset(id, v)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saves (id, version, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   version = excluded.version,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		string(id), AssetVersion, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", id, err)
	}
	return nil
}

func (s *SqliteStore[T]) Load(ctx context.Context, id Identifier) (T, error) {
	var zero T

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM saves WHERE id = ?`, string(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("querying %s: %w", id, err)
	}

	return decodeAsset[T](id, data)
}
