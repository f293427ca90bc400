package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-essence/pkg/essence"
)

// Backend is a filesystem implementation of the essence.PictureStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing pictures
	URLPrefix string // URL prefix pictures are served from (default: /pictures)
}

// New creates a new filesystem picture store
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if config.URLPrefix == "" {
		config.URLPrefix = "/pictures"
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimRight(config.URLPrefix, "/"),
	}, nil
}

// path maps objectKey below baseDir, rejecting keys that escape it
func (b *Backend) path(objectKey string) (string, error) {
	cleaned := filepath.Clean("/" + objectKey)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(b.baseDir, cleaned), nil
}

// Upload writes the picture to a temporary file and renames it into place,
// so a failed upload never leaves a partial picture behind
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	filePath, err := b.path(objectKey)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "upload", Err: err}
	}
	return nil
}

// Download opens the picture file
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath, err := b.path(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, essence.ErrPictureNotFound
	} else if err != nil {
		return nil, &essence.StorageError{Backend: "fs", Key: objectKey, Op: "download", Err: err}
	}
	return file, nil
}

// Delete removes the picture file and any directories left empty
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath, err := b.path(objectKey)
	if err != nil {
		return err
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return essence.ErrPictureNotFound
	}
	if err := os.Remove(filePath); err != nil {
		return &essence.StorageError{Backend: "fs", Key: objectKey, Op: "delete", Err: err}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

// GetPreviewURL returns the URL the picture is served from
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	filePath, err := b.path(objectKey)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", essence.ErrPictureNotFound
	}
	return b.urlPrefix + "/" + strings.TrimLeft(filepath.ToSlash(objectKey), "/"), nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if filepath.Clean(dir) == filepath.Clean(b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
