package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/fixture"
	"github.com/tendant/simple-essence/pkg/essence/repo/memory"
)

const page = `
elements:
  - name: article
    contents:
      - name: intro
        essence_type: EssenceText
        essence:
          body: "hello!"
        settings:
          ":css_class": from-settings
      - name: broken
        essence_type: EssenceText
        dangling: true
`

func setupHandler(t *testing.T) *Handler {
	t.Helper()
	f, err := fixture.Parse([]byte(page))
	require.NoError(t, err)

	repo := memory.New()
	_, err = f.Apply(context.Background(), repo)
	require.NoError(t, err)

	renderer := essence.NewRenderer(essence.WithWarner(essence.NewNoopWarner()))
	return NewHandler(repo, renderer)
}

func newRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("Essence MCP test", "1.0.0")
	assert.NotPanics(t, func() { setupHandler(t).RegisterTools(s) })
}

func TestHandleRenderEssence(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	result, err := h.handleRenderEssence(ctx, newRequest(map[string]any{
		"element": "article",
		"content": "intro",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello!", resultText(t, result))

	result, err = h.handleRenderEssence(ctx, newRequest(map[string]any{
		"element": "article",
		"content": "intro",
		"part":    "editor",
		"options": map[string]any{":css_class": "lead"},
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, `type="text"`)
	assert.Contains(t, text, "lead")
	assert.NotContains(t, text, "from-settings")
}

func TestHandleRenderEssence_AbsentContentRendersEmpty(t *testing.T) {
	h := setupHandler(t)

	for _, name := range []string{"broken", "missing"} {
		result, err := h.handleRenderEssence(context.Background(), newRequest(map[string]any{
			"element": "article",
			"content": name,
			"part":    "editor",
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError, name)
		assert.Equal(t, "", resultText(t, result), name)
	}
}

func TestHandleRenderEssence_Errors(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	tests := map[string]map[string]any{
		"missing element argument": {"content": "intro"},
		"unknown element":          {"element": "nope", "content": "intro"},
		"invalid part":             {"element": "article", "content": "intro", "part": "preview"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := h.handleRenderEssence(ctx, newRequest(args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleResolveSetting(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		options map[string]any
		want    settingResult
	}{
		{"from settings", "css_class", nil, settingResult{Key: "css_class", Value: "from-settings", Found: true}},
		{"symbol key", ":css_class", nil, settingResult{Key: "css_class", Value: "from-settings", Found: true}},
		{"option wins", "css_class", map[string]any{"css_class": "lead"}, settingResult{Key: "css_class", Value: "lead", Found: true}},
		{"missing", "linkable", nil, settingResult{Key: "linkable", Found: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{"element": "article", "content": "intro", "key": tt.key}
			if tt.options != nil {
				args["options"] = tt.options
			}
			result, err := h.handleResolveSetting(ctx, newRequest(args))
			require.NoError(t, err)
			require.False(t, result.IsError)

			var got settingResult
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	result, err := h.handleResolveSetting(ctx, newRequest(map[string]any{
		"element": "article", "content": "missing", "key": "css_class",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListElements(t *testing.T) {
	h := setupHandler(t)

	result, err := h.handleListElements(context.Background(), newRequest(nil))
	require.NoError(t, err)

	var got []elementSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "article", got[0].Name)
	assert.Equal(t, []contentSummary{
		{Name: "intro", EssenceType: essence.TypeText, HasEssence: true},
		{Name: "broken", EssenceType: essence.TypeText, HasEssence: false},
	}, got[0].Contents)
}
