// Package catalog loads the form templates a device can start drafts from.
package catalog

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mbolis/field-survey/model"
)

var ErrInvalid = errors.New("catalog: invalid")

type Catalog struct {
	templates map[int]*model.Template
	order     []int
}

type document struct {
	Templates []*model.Template `yaml:"templates"`
}

// Load reads the YAML catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.load")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return c, nil
}

// Parse decodes a catalog document. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrapf(ErrInvalid, "decode: %s", err)
	}

	c := &Catalog{templates: make(map[int]*model.Template, len(doc.Templates))}
	for i, t := range doc.Templates {
		if err := check(t); err != nil {
			return nil, errors.WithMessagef(err, "template #%d", i+1)
		}
		if _, dup := c.templates[t.ID]; dup {
			return nil, errors.Wrapf(ErrInvalid, "duplicate template id %d", t.ID)
		}
		c.templates[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	sort.Ints(c.order)
	return c, nil
}

func check(t *model.Template) error {
	if t == nil {
		return errors.Wrap(ErrInvalid, "empty template")
	}
	if t.ID <= 0 {
		return errors.Wrapf(ErrInvalid, "template id %d must be positive", t.ID)
	}
	seen := make(map[string]bool, len(t.Questions))
	for _, q := range t.Questions {
		if q.ID == "" {
			return errors.Wrapf(ErrInvalid, "template %d: question without id", t.ID)
		}
		if seen[q.ID] {
			return errors.Wrapf(ErrInvalid, "template %d: duplicate question id %q", t.ID, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// Get returns the template with the given catalog id.
func (c *Catalog) Get(id int) (*model.Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// All returns the templates ordered by id.
func (c *Catalog) All() []*model.Template {
	out := make([]*model.Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}
