package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-essence/pkg/essence"
)

// maxPictureSize caps picture uploads.
const maxPictureSize = 32 << 20

// SettingResponse is the response body for a resolved setting
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// EssenceHandler serves elements, rendered essences, settings and pictures
type EssenceHandler struct {
	repo     essence.Repository
	renderer essence.Renderer
	pictures essence.PictureStore
	logger   *slog.Logger
}

// HandlerOption configures an EssenceHandler
type HandlerOption func(*EssenceHandler)

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *EssenceHandler) {
		h.logger = logger
	}
}

// WithPictureStore enables the picture routes
func WithPictureStore(store essence.PictureStore) HandlerOption {
	return func(h *EssenceHandler) {
		h.pictures = store
	}
}

// NewEssenceHandler creates a new essence handler
func NewEssenceHandler(repo essence.Repository, renderer essence.Renderer, opts ...HandlerOption) *EssenceHandler {
	h := &EssenceHandler{
		repo:     repo,
		renderer: renderer,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the routes for elements, contents and pictures
func (h *EssenceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Get("/elements", h.ListElements)
	r.Get("/elements/{id}", h.GetElement)
	r.Get("/elements/{id}/contents/{name}", h.RenderContentByName)

	r.Get("/contents/{id}/render", h.RenderContent)
	r.Get("/contents/{id}/settings/{key}", h.GetSetting)
	r.Put("/contents/{id}/settings", h.UpdateSettings)

	if h.pictures != nil {
		r.Get("/pictures/*", h.DownloadPicture)
		r.Put("/pictures/*", h.UploadPicture)
	}

	return r
}

// Health reports liveness
func (h *EssenceHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ListElements returns every element with its contents
func (h *EssenceHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.repo.ListElements(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to list elements", err)
		return
	}
	if elements == nil {
		elements = []*essence.Element{}
	}
	render.JSON(w, r, elements)
}

// GetElement returns one element with its contents
func (h *EssenceHandler) GetElement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	element, err := h.repo.GetElement(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get element", err)
		return
	}
	render.JSON(w, r, element)
}

// RenderContentByName renders the content named {name} within element {id}.
// A missing content renders as an empty fragment.
func (h *EssenceHandler) RenderContentByName(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	part, err := essence.ParsePart(r.URL.Query().Get("part"))
	if err != nil {
		h.writeError(w, r, "Invalid part", err)
		return
	}

	element, err := h.repo.GetElement(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get element", err)
		return
	}

	name := chi.URLParam(r, "name")
	options := OptionsFromQuery(r.URL.Query())

	var html string
	if part == essence.PartEditor {
		html, err = h.renderer.RenderEssenceEditorByName(r.Context(), element, name, options)
	} else {
		html, err = h.renderer.RenderEssenceViewByName(r.Context(), element, name, options)
	}
	if err != nil {
		h.writeError(w, r, "Failed to render content", err)
		return
	}
	render.HTML(w, r, html)
}

// RenderContent renders content {id}
func (h *EssenceHandler) RenderContent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	part, err := essence.ParsePart(r.URL.Query().Get("part"))
	if err != nil {
		h.writeError(w, r, "Invalid part", err)
		return
	}

	content, err := h.repo.GetContent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get content", err)
		return
	}

	html, err := h.renderer.RenderEssence(r.Context(), content, part, OptionsFromQuery(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, "Failed to render content", err)
		return
	}
	render.HTML(w, r, html)
}

// GetSetting resolves {key} from the query options and the content settings
func (h *EssenceHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	content, err := h.repo.GetContent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get content", err)
		return
	}

	key := essence.NormalizeKey(chi.URLParam(r, "key"))
	value, found := essence.ValueFromSettingsOrOptions(content, OptionsFromQuery(r.URL.Query()), key)
	render.JSON(w, r, SettingResponse{Key: key, Value: value, Found: found})
}

// UpdateSettings replaces the settings of content {id} with the JSON body
func (h *EssenceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.logger.Error("Invalid settings body", "content_id", id, "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid settings body"})
		return
	}

	settings := essence.NewSettings(raw)
	if err := h.repo.UpdateContentSettings(r.Context(), id, settings); err != nil {
		h.writeError(w, r, "Failed to update settings", err)
		return
	}

	h.logger.Info("Content settings updated", "content_id", id, "keys", len(settings))
	render.JSON(w, r, settings)
}

// DownloadPicture streams a picture from the picture store
func (h *EssenceHandler) DownloadPicture(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	reader, err := h.pictures.Download(r.Context(), key)
	if err != nil {
		h.writeError(w, r, "Failed to download picture", err)
		return
	}
	defer reader.Close()

	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Failed to stream picture", "object_key", key, "error", err)
	}
}

// UploadPicture stores the request body under the wildcard key
func (h *EssenceHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "picture key is required"})
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxPictureSize)
	if err := h.pictures.Upload(r.Context(), key, body); err != nil {
		h.writeError(w, r, "Failed to upload picture", err)
		return
	}

	url, err := h.pictures.GetPreviewURL(r.Context(), key)
	if err != nil {
		h.writeError(w, r, "Failed to resolve picture URL", err)
		return
	}

	h.logger.Info("Picture uploaded", "object_key", key)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"key": key, "url": url})
}

func (h *EssenceHandler) parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Error("Invalid ID", param, raw, "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func (h *EssenceHandler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Warn(msg, "path", r.URL.Path, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

// StatusFor maps essence errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, essence.ErrElementNotFound),
		errors.Is(err, essence.ErrContentNotFound),
		errors.Is(err, essence.ErrEssenceNotFound),
		errors.Is(err, essence.ErrPictureNotFound):
		return http.StatusNotFound
	case errors.Is(err, essence.ErrInvalidPart):
		return http.StatusBadRequest
	default:
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusInternalServerError
	}
}

// OptionsFromQuery turns every query parameter except part into a render
// option. "true" and "false" become booleans; repeated parameters keep the
// first value.
func OptionsFromQuery(query map[string][]string) essence.Options {
	raw := make(map[string]any, len(query))
	for key, values := range query {
		if key == "part" || len(values) == 0 {
			continue
		}
		raw[key] = parseOptionValue(values[0])
	}
	return essence.NewOptions(raw)
}

func parseOptionValue(v string) any {
	switch strings.ToLower(v) {
	case "true", "false":
		b, _ := strconv.ParseBool(v)
		return b
	}
	return v
}
