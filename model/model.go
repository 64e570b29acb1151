package model

import "time"

// Template is a catalog entry. It is never mutated after load; working
// forms are created from it with Instantiate.
type Template struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

type Question struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Text     string `json:"text" yaml:"text"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required"`
}

type Beneficiary struct {
	ID            int    `json:"id"`
	Name          string `json:"name,omitempty"`
	AssociationID int    `json:"associationId,omitempty"`
	Specialized   bool   `json:"specialized"`
	// Eligible marks a beneficiary that may be promoted to specialized.
	Eligible bool `json:"eligible,omitempty"`
}

// Form is a working instance of a Template plus the runtime fields carried
// through the draft and survey ledgers.
type Form struct {
	ID           int               `json:"id" validate:"gt=0"`
	Name         string            `json:"name"`
	Questions    []Question        `json:"questions" validate:"dive"`
	Answers      map[string]string `json:"answers,omitempty"`
	UUID         string            `json:"uuid,omitempty" validate:"required,uuid"`
	Beneficiary  *Beneficiary      `json:"beneficiary,omitempty"`
	Position     string            `json:"position,omitempty"`
	Synchronized bool              `json:"sync"`
	Modified     time.Time         `json:"modified,omitempty"`
}

// Instantiate returns a fresh working form for the template.
func (t *Template) Instantiate() *Form {
	return &Form{
		ID:        t.ID,
		Name:      t.Name,
		Questions: cloneQuestions(t.Questions),
		Answers:   map[string]string{},
	}
}

// Clone returns a deep copy of f. Every field of Form must be handled here.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	c := &Form{
		ID:           f.ID,
		Name:         f.Name,
		Questions:    cloneQuestions(f.Questions),
		UUID:         f.UUID,
		Position:     f.Position,
		Synchronized: f.Synchronized,
		Modified:     f.Modified,
	}
	if f.Answers != nil {
		c.Answers = make(map[string]string, len(f.Answers))
		for k, v := range f.Answers {
			c.Answers[k] = v
		}
	}
	if f.Beneficiary != nil {
		b := *f.Beneficiary
		c.Beneficiary = &b
	}
	return c
}

// Question returns the question with the given id.
func (f *Form) Question(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// MissingAnswers lists the ids of required questions with an empty answer.
func (f *Form) MissingAnswers() []string {
	var missing []string
	for _, q := range f.Questions {
		if q.Required && f.Answers[q.ID] == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// CloneAll deep copies a slice of forms.
func CloneAll(forms []*Form) []*Form {
	out := make([]*Form, 0, len(forms))
	for _, f := range forms {
		out = append(out, f.Clone())
	}
	return out
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}
