package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMCPServer(t *testing.T) {
	t.Setenv("ESSENCE_TEMPLATE_DIR", "")
	t.Setenv("ESSENCE_STORAGE_URL", "")
	t.Setenv("ESSENCE_DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
elements:
  - name: article
    contents:
      - name: intro
        essence_type: EssenceText
        essence:
          body: "hello!"
`), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := newMCPServer(context.Background(), "ESSENCE_", path, logger)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = newMCPServer(context.Background(), "ESSENCE_", filepath.Join(t.TempDir(), "missing.yaml"), logger)
	assert.Error(t, err)
}
