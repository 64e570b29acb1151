package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/field-survey/database"
)

type sqliteBackend struct {
	db *sql.DB
}

// NewSqlite keeps values in the kv table of the sqlite file at path.
func NewSqlite(path string) (Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "storage: ensure sqlite dir")
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "storage: open sqlite")
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.
		QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

func (b *sqliteBackend) Write(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key,
		value,
		time.Now(),
	)
	return err
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
