package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/config"
)

const seed = `
elements:
  - name: article
    contents:
      - name: intro
        essence_type: EssenceText
        essence:
          body: "hello!"
`

func newTestServer(t *testing.T, env, apiKeySHA256 string) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	cfg, err := config.Load(config.WithEnvironment(env))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler, err := buildHandler(context.Background(), cfg, path, logger)
	require.NoError(t, err)

	router, err := newRouter(cfg, handler, apiKeySHA256, logger)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestServerRendersSeededContent(t *testing.T) {
	server := newTestServer(t, "testing", "")

	resp, err := http.Get(server.URL + "/elements")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var elements []essence.Element
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&elements))
	require.Len(t, elements, 1)

	resp, err = http.Get(server.URL + "/elements/" + elements[0].ID.String() + "/contents/intro")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello!", string(body))
}

func TestServerCORSInDevelopment(t *testing.T) {
	server := newTestServer(t, "development", "")

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/health", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerRequiresAPIKeyWhenConfigured(t *testing.T) {
	sum := sha256.Sum256([]byte("secret"))
	server := newTestServer(t, "production", hex.EncodeToString(sum[:]))

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/elements")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestBuildHandlerMissingSeed(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = buildHandler(context.Background(), cfg, filepath.Join(t.TempDir(), "missing.yaml"), slog.Default())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := newLogger(ProcessConfig{LogLevel: "debug", LogFormat: "json"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = newLogger(ProcessConfig{LogLevel: "nonsense"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
