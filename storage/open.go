package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mbolis/field-survey/config"
)

// Open builds the Store selected by cfg.Store.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Store {
	case config.StoreDiskv:
		backend, err = NewDiskv(cfg.DataDir)
	case config.StoreSqlite:
		backend, err = NewSqlite(cfg.SqlitePath())
	case config.StoreRedis:
		backend, err = NewRedis(ctx, cfg.RedisAddr)
	case config.StoreMemory:
		backend = NewMemory()
	default:
		err = errors.Errorf("storage: unknown backend %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}
