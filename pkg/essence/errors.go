package essence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrElementNotFound indicates an element was not found
	ErrElementNotFound = errors.New("element not found")

	// ErrContentNotFound indicates a content was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrEssenceNotFound indicates an essence record was not found
	ErrEssenceNotFound = errors.New("essence not found")

	// ErrPartialNotFound indicates no template exists for the requested partial
	ErrPartialNotFound = errors.New("partial not found")

	// ErrInvalidPart indicates a part other than view or editor
	ErrInvalidPart = errors.New("invalid part")

	// ErrUnknownEssenceType indicates an essence type with no registered constructor
	ErrUnknownEssenceType = errors.New("unknown essence type")

	// ErrPictureNotFound indicates a picture object is missing from its store
	ErrPictureNotFound = errors.New("picture not found")
)

// RenderError is returned when the templating collaborator fails.
type RenderError struct {
	Partial string
	Part    Part
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s partial %s failed: %v", e.Part, e.Partial, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ContentError represents an error related to content operations
type ContentError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to picture storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
