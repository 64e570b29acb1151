package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

// Drafts holds forms that are still being filled in. Entries are kept by
// reference: the session edits the active draft in place and calls Touch.
type Drafts struct {
	mu    sync.Mutex
	store Store
	key   string
	forms []*model.Form
	now   func() time.Time
}

func NewDrafts(st Store, key string) *Drafts {
	return &Drafts{store: st, key: key, now: time.Now}
}

// Locker guards the live entries. Code that edits an entry outside the
// ledger holds it for the length of the edit, so persists never see a half
// written form.
func (d *Drafts) Locker() sync.Locker {
	return &d.mu
}

func (d *Drafts) Load(ctx context.Context) error {
	forms, err := load(ctx, d.store, d.key)
	if err != nil {
		return fmt.Errorf("drafts.load: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.forms = merge(forms, d.forms)
	log.Debugf("drafts.load: %d drafts", len(d.forms))
	return nil
}

// Add appends f and persists. f must already carry its uuid.
func (d *Drafts) Add(ctx context.Context, f *model.Form) error {
	if f.UUID == "" {
		return ErrNoUUID
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if indexOf(d.forms, f.UUID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDup, f.UUID)
	}

	f.Modified = d.now()
	d.forms = append(d.forms, f)
	if err := d.persistLocked(ctx); err != nil {
		d.forms = d.forms[:len(d.forms)-1]
		return err
	}
	return nil
}

// Remove takes out the entry with f's uuid and returns it.
func (d *Drafts) Remove(ctx context.Context, f *model.Form) (*model.Form, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := indexOf(d.forms, f.UUID)
	if i < 0 {
		return nil, fmt.Errorf("%w: draft %q", ErrNotFound, f.UUID)
	}

	removed := d.forms[i]
	prev := d.forms
	d.forms = append(append(make([]*model.Form, 0, len(prev)-1), prev[:i]...), prev[i+1:]...)
	if err := d.persistLocked(ctx); err != nil {
		d.forms = prev
		return nil, err
	}
	return removed, nil
}

// Touch stamps the entry with f's uuid as modified now and persists.
func (d *Drafts) Touch(ctx context.Context, f *model.Form) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := indexOf(d.forms, f.UUID)
	if i < 0 {
		return fmt.Errorf("%w: draft %q", ErrNotFound, f.UUID)
	}
	d.forms[i].Modified = d.now()
	return d.persistLocked(ctx)
}

func (d *Drafts) Persist(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.persistLocked(ctx)
}

func (d *Drafts) persistLocked(ctx context.Context) error {
	if err := d.store.Set(ctx, d.key, d.forms); err != nil {
		return fmt.Errorf("drafts.persist: %w", err)
	}
	return nil
}

// List returns the live entries.
func (d *Drafts) List() []*model.Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*model.Form(nil), d.forms...)
}

// Get returns the live entry with the given uuid.
func (d *Drafts) Get(uuid string) (*model.Form, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := indexOf(d.forms, uuid); i >= 0 {
		return d.forms[i], true
	}
	return nil, false
}
