// Package ledger keeps the local collections of drafts and surveys. Each
// ledger owns its in-memory list and writes it whole to the store after every
// structural change.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/storage"
)

var (
	ErrNotFound = errors.New("ledger: form not found")
	ErrCorrupt  = errors.New("ledger: stored forms are corrupt")
	ErrNoUUID   = errors.New("ledger: form has no uuid")
	ErrDup      = errors.New("ledger: uuid already present")
)

// Store is the persistent side of a ledger.
type Store interface {
	Get(ctx context.Context, key string) ([]*model.Form, error)
	Set(ctx context.Context, key string, forms []*model.Form) error
}

// load reads key, treating a missing key as an empty ledger.
func load(ctx context.Context, st Store, key string) ([]*model.Form, error) {
	forms, err := st.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case errors.Is(err, storage.ErrMalformed):
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	case err != nil:
		return nil, err
	}

	// drop null entries and entries the ledger can't address
	out := forms[:0]
	for _, f := range forms {
		if f != nil && f.UUID != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// merge puts loaded entries first, keeping entries added before the load
// finished unless the store already had them.
func merge(loaded, current []*model.Form) []*model.Form {
	seen := make(map[string]bool, len(loaded))
	for _, f := range loaded {
		seen[f.UUID] = true
	}
	for _, f := range current {
		if !seen[f.UUID] {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

func indexOf(forms []*model.Form, uuid string) int {
	for i, f := range forms {
		if f.UUID == uuid {
			return i
		}
	}
	return -1
}
