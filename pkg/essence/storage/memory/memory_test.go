package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-essence/pkg/essence"
)

func TestMemoryBackend_UploadDownload(t *testing.T) {
	backend := New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "pictures/logo.png", strings.NewReader("png-bytes")))

	reader, err := backend.Download(ctx, "pictures/logo.png")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestMemoryBackend_Missing(t *testing.T) {
	backend := New()
	ctx := context.Background()

	_, err := backend.Download(ctx, "missing.png")
	assert.ErrorIs(t, err, essence.ErrPictureNotFound)

	_, err = backend.GetPreviewURL(ctx, "missing.png")
	assert.ErrorIs(t, err, essence.ErrPictureNotFound)

	assert.ErrorIs(t, backend.Delete(ctx, "missing.png"), essence.ErrPictureNotFound)
}

func TestMemoryBackend_GetPreviewURL(t *testing.T) {
	ctx := context.Background()

	backend := New()
	require.NoError(t, backend.Upload(ctx, "logo.png", strings.NewReader("x")))
	url, err := backend.GetPreviewURL(ctx, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "/pictures/logo.png", url)

	custom := NewWithURLPrefix("https://cdn.example.com/media/")
	require.NoError(t, custom.Upload(ctx, "/logo.png", strings.NewReader("x")))
	url, err = custom.GetPreviewURL(ctx, "/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/logo.png", url)
}

func TestMemoryBackend_Delete(t *testing.T) {
	backend := New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "logo.png", strings.NewReader("x")))
	require.NoError(t, backend.Delete(ctx, "logo.png"))

	_, err := backend.Download(ctx, "logo.png")
	assert.ErrorIs(t, err, essence.ErrPictureNotFound)
}
