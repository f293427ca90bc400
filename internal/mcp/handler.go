package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/fixture"
)

// Handler exposes essence rendering and setting resolution as MCP tools
type Handler struct {
	repo     essence.Repository
	renderer essence.Renderer
}

// NewHandler creates a new instance of Handler
func NewHandler(repo essence.Repository, renderer essence.Renderer) *Handler {
	return &Handler{repo: repo, renderer: renderer}
}

// elementSummary is the list_elements payload for one element
type elementSummary struct {
	Name     string           `json:"name"`
	Contents []contentSummary `json:"contents"`
}

type contentSummary struct {
	Name        string `json:"name"`
	EssenceType string `json:"essence_type"`
	HasEssence  bool   `json:"has_essence"`
}

// settingResult is the resolve_setting payload
type settingResult struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
}

// RegisterTools registers the essence tools with the MCP server
func (h *Handler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.Tool{
		Name:        "list_elements",
		Description: "List elements with their contents and essence types",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
		},
	}, h.handleListElements)

	s.AddTool(mcp.Tool{
		Name:        "render_essence",
		Description: "Render the view or editor HTML of a content looked up by element and content name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"element": map[string]any{"type": "string", "description": "element name"},
				"content": map[string]any{"type": "string", "description": "content name within the element"},
				"part":    map[string]any{"type": "string", "enum": []string{"view", "editor"}},
				"options": map[string]any{"type": "object", "description": "render options, e.g. {\"css_class\": \"lead\"}"},
			},
			Required: []string{"element", "content"},
		},
	}, h.handleRenderEssence)

	s.AddTool(mcp.Tool{
		Name:        "resolve_setting",
		Description: "Resolve a setting from options first, then the content's settings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"element": map[string]any{"type": "string", "description": "element name"},
				"content": map[string]any{"type": "string", "description": "content name within the element"},
				"key":     map[string]any{"type": "string", "description": "setting key, ':key' and 'key' are equivalent"},
				"options": map[string]any{"type": "object"},
			},
			Required: []string{"element", "content", "key"},
		},
	}, h.handleResolveSetting)
}

func (h *Handler) handleListElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	elements, err := h.repo.ListElements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}

	summaries := make([]elementSummary, 0, len(elements))
	for _, el := range elements {
		summary := elementSummary{Name: el.Name, Contents: []contentSummary{}}
		for _, c := range el.Contents {
			summary.Contents = append(summary.Contents, contentSummary{
				Name:        c.Name,
				EssenceType: c.EssenceType,
				HasEssence:  c.Essence != nil,
			})
		}
		summaries = append(summaries, summary)
	}
	return jsonResult(summaries)
}

func (h *Handler) handleRenderEssence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	element, result := h.element(ctx, args)
	if result != nil {
		return result, nil
	}

	part, err := essence.ParsePart(stringArg(args, "part"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	options := optionsArg(args)
	name := stringArg(args, "content")

	var html string
	if part == essence.PartEditor {
		html, err = h.renderer.RenderEssenceEditorByName(ctx, element, name, options)
	} else {
		html, err = h.renderer.RenderEssenceViewByName(ctx, element, name, options)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(html), nil
}

func (h *Handler) handleResolveSetting(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	element, result := h.element(ctx, args)
	if result != nil {
		return result, nil
	}

	name := stringArg(args, "content")
	content := element.ContentByName(name)
	if content == nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", essence.ErrContentNotFound, name)), nil
	}

	key := stringArg(args, "key")
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	value, found := essence.ValueFromSettingsOrOptions(content, optionsArg(args), key)
	return jsonResult(settingResult{Key: essence.NormalizeKey(key), Value: value, Found: found})
}

// element resolves the "element" argument. A non-nil result is a tool error
// to return to the client.
func (h *Handler) element(ctx context.Context, args map[string]any) (*essence.Element, *mcp.CallToolResult) {
	name := stringArg(args, "element")
	if name == "" {
		return nil, mcp.NewToolResultError("element is required")
	}
	elements, err := h.repo.ListElements(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	el := fixture.FindElement(elements, name)
	if el == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v: %s", essence.ErrElementNotFound, name))
	}
	return el, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func optionsArg(args map[string]any) essence.Options {
	raw, ok := args["options"].(map[string]any)
	if !ok {
		return nil
	}
	return essence.NewOptions(raw)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
