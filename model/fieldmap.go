package model

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownQuestion = errors.New("unknown question")

// FieldMap holds the answers of the active form keyed by question id. It
// writes straight through to the bound form's Answers, holding the guard
// while it does.
type FieldMap struct {
	mu        sync.RWMutex
	guard     sync.Locker
	questions []Question
	known     map[string]bool
	answers   map[string]string
}

func NewFieldMap() *FieldMap {
	return &FieldMap{guard: nopLocker{}, known: map[string]bool{}, answers: map[string]string{}}
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Guard sets the lock held around every write to a bound form. It is the
// lock of whoever else reads the form, such as the ledger that persists it.
func (m *FieldMap) Guard(l sync.Locker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l == nil {
		l = nopLocker{}
	}
	m.guard = l
}

// Bind publishes the form's questions and binds its answers. A nil form
// clears the map.
func (m *FieldMap) Bind(f *Form) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.questions = nil
	m.known = map[string]bool{}
	m.answers = map[string]string{}
	if f == nil {
		return
	}
	if f.Answers == nil {
		m.guard.Lock()
		f.Answers = map[string]string{}
		m.guard.Unlock()
	}
	m.questions = f.Questions
	m.answers = f.Answers
	for _, q := range f.Questions {
		m.known[q.ID] = true
	}
}

// Questions returns the published question list.
func (m *FieldMap) Questions() []Question {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneQuestions(m.questions)
}

func (m *FieldMap) Get(questionID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.answers[questionID]
	return v, ok
}

func (m *FieldMap) Set(questionID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.known[questionID] {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	m.guard.Lock()
	m.answers[questionID] = value
	m.guard.Unlock()
	return nil
}

// Missing lists required questions that have no answer yet.
func (m *FieldMap) Missing() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missing []string
	for _, q := range m.questions {
		if q.Required && m.answers[q.ID] == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
