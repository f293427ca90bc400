package essence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePart(t *testing.T) {
	p, err := ParsePart("")
	require.NoError(t, err)
	assert.Equal(t, PartView, p)

	p, err = ParsePart("editor")
	require.NoError(t, err)
	assert.Equal(t, PartEditor, p)

	_, err = ParsePart("preview")
	assert.ErrorIs(t, err, ErrInvalidPart)
}

func TestElementContentByName(t *testing.T) {
	intro := &Content{Name: "intro"}
	element := &Element{Contents: []*Content{nil, {Name: "body"}, intro}}

	assert.Same(t, intro, element.ContentByName("intro"))
	assert.Nil(t, element.ContentByName("missing"))

	var nilElement *Element
	assert.Nil(t, nilElement.ContentByName("intro"))
}

func TestContentFormFieldName(t *testing.T) {
	id := uuid.MustParse("6f1f7c5e-1e57-4c52-9d3c-3f1f0e1a9b10")
	c := &Content{ID: id}

	assert.Equal(t, "contents[content_6f1f7c5e-1e57-4c52-9d3c-3f1f0e1a9b10][body]", c.FormFieldName("body"))
	assert.Equal(t, "contents[content_6f1f7c5e-1e57-4c52-9d3c-3f1f0e1a9b10][ingredient]", c.FormFieldName(""))
}
