package s3

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, prefix string) *Backend {
	t.Helper()
	backend, err := New(Config{
		Region:          "eu-central-1",
		Bucket:          "pictures",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		KeyPrefix:       prefix,
	})
	require.NoError(t, err)
	return backend
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Config{})
	assert.EqualError(t, err, "bucket name is required")
}

func TestNew_Defaults(t *testing.T) {
	backend, err := New(Config{Bucket: "pictures", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", backend.config.Region)
	assert.Equal(t, 3600, backend.config.PresignDuration)
}

func TestBackend_Key(t *testing.T) {
	assert.Equal(t, "logo.png", newTestBackend(t, "").key("logo.png"))
	assert.Equal(t, "essence/logo.png", newTestBackend(t, "essence/").key("/logo.png"))
}

func TestBackend_GetPreviewURL(t *testing.T) {
	backend := newTestBackend(t, "essence")

	url, err := backend.GetPreviewURL(context.Background(), "logo.png")
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/pictures/essence/logo.png?")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "response-content-disposition=inline")
}

func TestAPIErrorCode(t *testing.T) {
	err := fmt.Errorf("get object: %w", &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"})
	assert.Equal(t, "NoSuchKey", apiErrorCode(err))
	assert.Equal(t, "", apiErrorCode(fmt.Errorf("network down")))
}
