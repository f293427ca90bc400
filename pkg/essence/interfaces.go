package essence

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the interface for element, content and essence persistence.
//
// GetElement and GetContent return contents with their Essence loaded. A
// content whose essence record is missing is returned with a nil Essence.
type Repository interface {
	// Element operations
	CreateElement(ctx context.Context, element *Element) error
	GetElement(ctx context.Context, id uuid.UUID) (*Element, error)
	ListElements(ctx context.Context) ([]*Element, error)
	DeleteElement(ctx context.Context, id uuid.UUID) error

	// Content operations
	CreateContent(ctx context.Context, content *Content) error
	GetContent(ctx context.Context, id uuid.UUID) (*Content, error)
	UpdateContentSettings(ctx context.Context, id uuid.UUID, settings Settings) error

	// Essence operations
	CreateEssence(ctx context.Context, id uuid.UUID, essence Essence) error
	GetEssence(ctx context.Context, id uuid.UUID) (Essence, error)
	DeleteEssence(ctx context.Context, id uuid.UUID) error
}

// PictureStore defines the interface for picture blob backends
type PictureStore interface {
	// Upload stores a picture under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download opens the picture stored under objectKey
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the picture stored under objectKey
	Delete(ctx context.Context, objectKey string) error

	// GetPreviewURL returns a URL suitable for an <img src> attribute
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)
}

// Translator resolves i18n keys to localized text.
type Translator interface {
	T(locale, key string) string
}

// Warner receives editor warnings for absent contents and essences.
// message is meant for developers, text is the localized user-facing string.
type Warner interface {
	Warn(ctx context.Context, message, text string)
}

// WarnerFunc adapts a function to the Warner interface.
type WarnerFunc func(ctx context.Context, message, text string)

// Warn calls f.
func (f WarnerFunc) Warn(ctx context.Context, message, text string) {
	f(ctx, message, text)
}
