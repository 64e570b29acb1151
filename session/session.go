// Package session coordinates the form the field worker currently has open
// and moves it from template to draft to survey.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/mbolis/field-survey/geo"
	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

var (
	ErrNoActiveForm        = errors.New("session: no active form")
	ErrNotDraft            = errors.New("session: active form is not a draft")
	ErrAlreadyDraft        = errors.New("session: form already has a uuid")
	ErrBeneficiaryRejected = errors.New("session: beneficiary is not specialized")
)

// DefaultSpecializedTemplate is the catalog id of the form type that only
// accepts specialized beneficiaries.
const DefaultSpecializedTemplate = 1

// DraftLedger holds live drafts. Locker guards every write to them.
type DraftLedger interface {
	Add(ctx context.Context, f *model.Form) error
	Remove(ctx context.Context, f *model.Form) (*model.Form, error)
	Touch(ctx context.Context, f *model.Form) error
	Persist(ctx context.Context) error
	Get(uuid string) (*model.Form, bool)
	Locker() sync.Locker
}

type SurveyLedger interface {
	Push(ctx context.Context, f *model.Form) error
	Withdraw(ctx context.Context, uuid string) error
}

// Classification says what the active form is. Callers supply it; exactly
// one flag is expected to be set.
type Classification struct {
	Template bool
	Draft    bool
	Survey   bool
}

var (
	AsTemplate = Classification{Template: true}
	AsDraft    = Classification{Draft: true}
	AsSurvey   = Classification{Survey: true}
)

type Session struct {
	mu      sync.Mutex
	drafts  DraftLedger
	surveys SurveyLedger
	locator geo.Locator
	fields  *model.FieldMap
	// guard is held for every write to the active form.
	guard sync.Locker

	specializedTemplate int
	newID               func() (string, error)

	active        *model.Form
	class         Classification
	questionsPage bool
}

type Option func(*Session)

func WithSpecializedTemplate(id int) Option {
	return func(s *Session) { s.specializedTemplate = id }
}

func WithFieldMap(m *model.FieldMap) Option {
	return func(s *Session) { s.fields = m }
}

func New(drafts DraftLedger, surveys SurveyLedger, locator geo.Locator, opts ...Option) *Session {
	s := &Session{
		drafts:              drafts,
		surveys:             surveys,
		locator:             locator,
		guard:               drafts.Locker(),
		fields:              model.NewFieldMap(),
		specializedTemplate: DefaultSpecializedTemplate,
		newID:               newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fields.Guard(s.guard)
	return s
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Select makes form the active form, discarding whatever was active before.
// Drafts and surveys have their questions published to the field map;
// templates clear it.
func (s *Session) Select(form *model.Form, class Classification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = form
	s.class = class
	if class.Draft || class.Survey {
		s.fields.Bind(form)
	} else {
		s.fields.Bind(nil)
	}
}

func (s *Session) Active() *model.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) IsTemplate() bool { return s.Kind().Template }
func (s *Session) IsDraft() bool    { return s.Kind().Draft }
func (s *Session) IsSurvey() bool   { return s.Kind().Survey }

// Kind reports how the active form was classified.
func (s *Session) Kind() Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.class
}

func (s *Session) Fields() *model.FieldMap {
	return s.fields
}

func (s *Session) SetQuestionsPage(on bool) {
	s.mu.Lock()
	s.questionsPage = on
	s.mu.Unlock()
}

func (s *Session) IsQuestionsPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsPage
}

func (s *Session) TotalQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0
	}
	return len(s.active.Questions)
}

func (s *Session) Beneficiary() *model.Beneficiary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.Beneficiary
}

// SetBeneficiary attaches candidate to the active form. On the specialized
// template a candidate must be specialized already or eligible; an eligible
// one is promoted in place.
func (s *Session) SetBeneficiary(candidate *model.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveForm
	}
	if candidate == nil {
		return errors.New("session: nil beneficiary")
	}
	if cur := s.active.Beneficiary; cur != nil && (cur == candidate || cur.ID == candidate.ID) {
		return nil
	}

	promote := false
	if s.active.ID == s.specializedTemplate && !candidate.Specialized {
		if !candidate.Eligible {
			return fmt.Errorf("%w: beneficiary %d on form %d", ErrBeneficiaryRejected, candidate.ID, s.active.ID)
		}
		promote = true
	}

	s.guard.Lock()
	defer s.guard.Unlock()
	if promote {
		candidate.Specialized = true
	}
	s.active.Beneficiary = candidate
	return nil
}

// RequestLocation asks the locator for the current position and writes it
// on the form that is active now. Locator errors come back unchanged.
func (s *Session) RequestLocation(ctx context.Context) *Task {
	s.mu.Lock()
	target := s.active
	s.mu.Unlock()

	if target == nil {
		return spawn(func() error { return ErrNoActiveForm })
	}
	return spawn(func() error {
		pos, err := s.locator.CurrentPosition(ctx)
		if err != nil {
			return err
		}
		s.guard.Lock()
		target.Position = pos.String()
		s.guard.Unlock()
		return nil
	})
}

// StartDraft copies the active form, gives the copy a fresh uuid and adds it
// to the draft ledger. The copy becomes the active draft.
func (s *Session) StartDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveForm
	}
	if s.active.UUID != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyDraft, s.active.UUID)
	}

	draft := s.active.Clone()
	id, err := s.newID()
	if err != nil {
		return fmt.Errorf("session.start_draft: %w", err)
	}
	draft.UUID = id
	draft.Synchronized = false

	if err := s.drafts.Add(ctx, draft); err != nil {
		return err
	}
	s.active = draft
	s.class = AsDraft
	s.fields.Bind(draft)
	log.Debugf("session.start_draft: %s from template %d", draft.UUID, draft.ID)
	return nil
}

// SaveSurvey moves the active draft into the survey ledger. The survey is
// stored before the draft is removed, so a crash in between leaves the form in
// both ledgers rather than in neither. If the draft can't be removed the
// survey is withdrawn again.
func (s *Session) SaveSurvey(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveForm
	}
	if !s.class.Draft {
		return ErrNotDraft
	}
	id := s.active.UUID
	if _, ok := s.drafts.Get(id); !ok {
		return fmt.Errorf("%w: draft %q", ledger.ErrNotFound, id)
	}

	if err := s.surveys.Push(ctx, s.snapshot()); err != nil {
		return err
	}
	if _, err := s.drafts.Remove(ctx, s.active); err != nil {
		if werr := s.surveys.Withdraw(ctx, id); werr != nil {
			log.Errorf("session.save_survey: withdraw survey %s: %s", id, werr)
		}
		return err
	}
	if err := s.drafts.Persist(ctx); err != nil {
		return err
	}

	s.class = AsSurvey
	log.Debugf("session.save_survey: %s", id)
	return nil
}

// snapshot copies the active form while no one can write to it.
func (s *Session) snapshot() *model.Form {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.active.Clone()
}

// TouchModified stamps the active draft as modified now. It does nothing
// for templates and surveys.
func (s *Session) TouchModified(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.class.Draft || s.active == nil {
		return nil
	}
	return s.drafts.Touch(ctx, s.active)
}
