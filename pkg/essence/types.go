package essence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Part selects which partial variant is rendered for an essence.
type Part string

// Part constants (typed).
const (
	PartView   Part = "view"
	PartEditor Part = "editor"
)

// IsValid reports whether p is one of the known parts.
func (p Part) IsValid() bool {
	switch p {
	case PartView, PartEditor:
		return true
	}
	return false
}

// ParsePart converts a raw string into a Part. An empty string yields PartView.
func ParsePart(raw string) (Part, error) {
	if raw == "" {
		return PartView, nil
	}
	p := Part(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPart, raw)
	}
	return p, nil
}

// Element is a named container of contents.
type Element struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Position  int        `json:"position"`
	Public    bool       `json:"public"`
	Contents  []*Content `json:"contents,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ContentFinder looks up a content by its logical name.
type ContentFinder interface {
	ContentByName(name string) *Content
}

// ContentByName returns the first content named name, or nil.
func (e *Element) ContentByName(name string) *Content {
	if e == nil {
		return nil
	}
	for _, c := range e.Contents {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// Content is a typed slot within an Element that wraps one Essence.
//
// Essence is nil when the essence reference is missing or dangling. That is
// a valid state, not an error.
type Content struct {
	ID          uuid.UUID     `json:"id"`
	ElementID   uuid.UUID     `json:"element_id"`
	Name        string        `json:"name"`
	EssenceType string        `json:"essence_type"`
	EssenceID   uuid.NullUUID `json:"essence_id"`
	Position    int           `json:"position"`
	Settings    Settings      `json:"settings,omitempty"`
	Essence     Essence       `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// FormFieldName returns the form field name used by editor partials for the
// given essence column.
func (c *Content) FormFieldName(column string) string {
	if column == "" {
		column = "ingredient"
	}
	return fmt.Sprintf("contents[content_%s][%s]", c.ID, column)
}

// HTMLOptions are extra HTML attributes forwarded to a partial.
type HTMLOptions map[string]string
