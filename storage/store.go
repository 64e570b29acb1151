// Package storage is the durable key/value store behind the draft and survey
// ledgers. Each key holds a whole JSON-encoded list of forms, written as one
// unit.
package storage

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/field-survey/model"
)

var (
	// ErrNotFound is returned by Get when nothing was ever stored under a key.
	ErrNotFound = errors.New("storage: key not found")
	// ErrMalformed is returned by Get when the stored value can't be decoded.
	ErrMalformed = errors.New("storage: malformed value")
)

// Backend is a raw byte store. Write must replace the value atomically.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Get(ctx context.Context, key string) ([]*model.Form, error) {
	raw, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "storage.get %s", key)
	}

	var forms []*model.Form
	if err := json.Unmarshal(raw, &forms); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "storage.get %s: %v", key, err)
	}
	return forms, nil
}

func (s *Store) Set(ctx context.Context, key string, forms []*model.Form) error {
	if forms == nil {
		forms = []*model.Form{}
	}
	raw, err := json.Marshal(forms)
	if err != nil {
		return errors.Wrapf(err, "storage.set %s: encode", key)
	}
	if err := s.backend.Write(ctx, key, raw); err != nil {
		return errors.Wrapf(err, "storage.set %s", key)
	}
	return nil
}

// CopyRaw copies the bytes under from to the key to without decoding them.
func (s *Store) CopyRaw(ctx context.Context, from, to string) error {
	raw, err := s.backend.Read(ctx, from)
	if err != nil {
		return errors.Wrapf(err, "storage.copy %s", from)
	}
	if err := s.backend.Write(ctx, to, raw); err != nil {
		return errors.Wrapf(err, "storage.copy %s to %s", from, to)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
