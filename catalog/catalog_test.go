package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
templates:
  - id: 2
    name: Farm visit
    questions:
      - id: crop
        text: Main crop
        type: text
  - id: 1
    name: Producer census
    questions:
      - id: "1"
        text: Full name
        type: text
        required: true
      - id: "2"
        text: Notes
        type: textarea
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)

	census, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Producer census", census.Name)
	require.Len(t, census.Questions, 2)
	assert.True(t, census.Questions[0].Required)
	assert.False(t, census.Questions[1].Required)

	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, c.All())
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate template": `
templates:
  - {id: 1, name: a}
  - {id: 1, name: b}`,
		"zero id": `
templates:
  - {id: 0, name: a}`,
		"question without id": `
templates:
  - id: 1
    questions:
      - {text: Name}`,
		"duplicate question": `
templates:
  - id: 1
    questions:
      - {id: q, text: a}
      - {id: q, text: b}`,
		"unknown key": `
templates:
  - {id: 1, title: a}`,
		"not yaml": `templates: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}
