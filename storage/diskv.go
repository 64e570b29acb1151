package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
)

type diskvBackend struct {
	d *diskv.Diskv
}

// NewDiskv stores every key as a flat file under basePath. Writes go through
// a temp dir and a rename so a crash never leaves a half-written list.
func NewDiskv(basePath string) (Backend, error) {
	if basePath == "" {
		return nil, errors.New("storage: diskv base path required")
	}
	tmp := filepath.Join(basePath, ".tmp")
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return nil, errors.Wrap(err, "storage: ensure diskv base path")
	}

	return &diskvBackend{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		TempDir:           tmp,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}, nil
}

func (b *diskvBackend) Read(_ context.Context, key string) ([]byte, error) {
	val, err := b.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (b *diskvBackend) Write(_ context.Context, key string, value []byte) error {
	return b.d.Write(key, value)
}

func (b *diskvBackend) Close() error {
	return nil
}

func keyToPathTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}
