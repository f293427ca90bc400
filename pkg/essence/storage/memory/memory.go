package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/tendant/simple-essence/pkg/essence"
)

// DefaultURLPrefix is where the HTTP API serves pictures from.
const DefaultURLPrefix = "/pictures"

// Backend is an in-memory implementation of the essence.PictureStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	urlPrefix string
}

// New creates a new in-memory picture store serving URLs below DefaultURLPrefix
func New() *Backend {
	return NewWithURLPrefix(DefaultURLPrefix)
}

// NewWithURLPrefix creates a new in-memory picture store serving URLs below prefix
func NewWithURLPrefix(prefix string) *Backend {
	return &Backend{
		objects:   make(map[string][]byte),
		urlPrefix: strings.TrimRight(prefix, "/"),
	}
}

// Upload stores the picture bytes under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &essence.StorageError{Backend: "memory", Key: objectKey, Op: "upload", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	return nil
}

// Download returns the picture bytes stored under objectKey
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, essence.ErrPictureNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the picture stored under objectKey
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return essence.ErrPictureNotFound
	}

	delete(b.objects, objectKey)
	return nil
}

// GetPreviewURL returns the API path serving objectKey. The picture must exist.
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	b.mu.RLock()
	_, exists := b.objects[objectKey]
	b.mu.RUnlock()

	if !exists {
		return "", essence.ErrPictureNotFound
	}
	return b.urlPrefix + "/" + strings.TrimLeft(objectKey, "/"), nil
}
