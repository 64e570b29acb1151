package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/mbolis/field-survey/gateway"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/network"
	"github.com/mbolis/field-survey/notice"
)

// Remote bundles what a sync cycle talks to. Endpoint is independent of the
// ledger's storage key even when both have the same value.
type Remote struct {
	Gateway  gateway.Gateway
	Endpoint string
	Monitor  network.Monitor
	Notifier notice.Notifier
}

// Surveys holds completed forms until, and after, the remote acknowledges
// them. Entries are private copies; callers only ever see clones.
type Surveys struct {
	mu     sync.Mutex
	store  Store
	key    string
	remote Remote
	forms  []*model.Form
}

func NewSurveys(st Store, key string, remote Remote) *Surveys {
	return &Surveys{store: st, key: key, remote: remote}
}

// Load fills the ledger from the store. Until it returns the ledger reads as
// empty. Corrupt data leaves it empty and reports ErrCorrupt.
func (s *Surveys) Load(ctx context.Context) error {
	forms, err := load(ctx, s.store, s.key)
	if err != nil {
		return fmt.Errorf("surveys.load: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms = merge(forms, s.forms)
	log.Debugf("surveys.load: %d surveys", len(s.forms))
	return nil
}

// Push stores a copy of f and persists the whole ledger.
func (s *Surveys) Push(ctx context.Context, f *model.Form) error {
	if f.UUID == "" {
		return ErrNoUUID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.forms, f.UUID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDup, f.UUID)
	}

	s.forms = append(s.forms, f.Clone())
	if err := s.persistLocked(ctx); err != nil {
		s.forms = s.forms[:len(s.forms)-1]
		return err
	}
	return nil
}

// Withdraw takes the survey with the given uuid back out of the ledger and
// persists. It undoes a Push whose follow-up failed.
func (s *Surveys) Withdraw(ctx context.Context, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.forms, uuid)
	if i < 0 {
		return fmt.Errorf("%w: survey %q", ErrNotFound, uuid)
	}
	prev := s.forms
	s.forms = append(append(make([]*model.Form, 0, len(prev)-1), prev[:i]...), prev[i+1:]...)
	if err := s.persistLocked(ctx); err != nil {
		s.forms = prev
		return err
	}
	return nil
}

// List returns copies of every survey in ledger order.
func (s *Surveys) List() []*model.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneAll(s.forms)
}

// Get returns a copy of the survey with the given uuid.
func (s *Surveys) Get(uuid string) (*model.Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.forms, uuid); i >= 0 {
		return s.forms[i].Clone(), true
	}
	return nil, false
}

func (s *Surveys) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Surveys) persistLocked(ctx context.Context) error {
	if err := s.store.Set(ctx, s.key, s.forms); err != nil {
		return fmt.Errorf("surveys.persist: %w", err)
	}
	return nil
}

// markSynced flips the flag on the survey with the given uuid. The flag only
// ever goes from false to true. Callers hold s.mu.
func (s *Surveys) markSynced(uuid string) bool {
	i := indexOf(s.forms, uuid)
	if i < 0 {
		return false
	}
	s.forms[i].Synchronized = true
	return true
}

func (s *Surveys) unsynced() []*model.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*model.Form
	for _, f := range s.forms {
		if !f.Synchronized {
			pending = append(pending, f.Clone())
		}
	}
	return pending
}
