package essence

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tendant/simple-essence/pkg/essence"

// i18n keys for editor warnings
const (
	keyContentNotFound = "content_not_found"
	keyEssenceNotFound = "content_essence_not_found"
)

// renderer implements the Renderer interface
type renderer struct {
	templates    fs.FS
	templateRoot string
	cacheTTL     time.Duration
	partials     *partialSet
	translator   Translator
	warner       Warner
	pictures     PictureStore
	locale       string
	logger       *slog.Logger
	tracer       trace.Tracer
}

// RendererOption represents a functional option for configuring the renderer
type RendererOption func(*renderer)

// WithTemplates loads partials from fsys below root instead of the embedded set
func WithTemplates(fsys fs.FS, root string) RendererOption {
	return func(r *renderer) {
		r.templates = fsys
		r.templateRoot = root
	}
}

// WithPartialCacheTTL expires parsed partials after ttl so edits on disk are picked up
func WithPartialCacheTTL(ttl time.Duration) RendererOption {
	return func(r *renderer) {
		r.cacheTTL = ttl
	}
}

// WithTranslator sets the i18n collaborator
func WithTranslator(t Translator) RendererOption {
	return func(r *renderer) {
		r.translator = t
	}
}

// WithWarner sets the sink for editor warnings
func WithWarner(w Warner) RendererOption {
	return func(r *renderer) {
		r.warner = w
	}
}

// WithPictureStore sets the store used to resolve picture URLs
func WithPictureStore(store PictureStore) RendererOption {
	return func(r *renderer) {
		r.pictures = store
	}
}

// WithLocale sets the default locale for translations
func WithLocale(locale string) RendererOption {
	return func(r *renderer) {
		r.locale = locale
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) RendererOption {
	return func(r *renderer) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for render spans
func WithTracer(tracer trace.Tracer) RendererOption {
	return func(r *renderer) {
		r.tracer = tracer
	}
}

// NewRenderer creates a renderer with the given options
func NewRenderer(options ...RendererOption) Renderer {
	r := &renderer{
		templates:    defaultTemplates,
		templateRoot: defaultTemplateRoot,
		locale:       "en",
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.translator == nil {
		r.translator = DefaultCatalog()
	}
	if r.warner == nil {
		r.warner = NewSlogWarner(r.logger)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	r.partials = newPartialSet(r.templates, r.templateRoot, templateFuncs(), r.cacheTTL)
	return r
}

func (r *renderer) RenderEssence(ctx context.Context, content *Content, part Part, options Options) (string, error) {
	return r.RenderEssenceWithHTMLOptions(ctx, content, part, options, nil)
}

func (r *renderer) RenderEssenceView(ctx context.Context, content *Content, options Options) (string, error) {
	return r.RenderEssence(ctx, content, PartView, options)
}

func (r *renderer) RenderEssenceEditor(ctx context.Context, content *Content, options Options) (string, error) {
	return r.RenderEssence(ctx, content, PartEditor, options)
}

func (r *renderer) RenderEssenceViewByName(ctx context.Context, element ContentFinder, name string, options Options) (string, error) {
	return r.RenderEssenceView(ctx, findContent(element, name), options)
}

func (r *renderer) RenderEssenceEditorByName(ctx context.Context, element ContentFinder, name string, options Options) (string, error) {
	return r.RenderEssenceEditor(ctx, findContent(element, name), options)
}

func (r *renderer) RenderEssenceWithHTMLOptions(ctx context.Context, content *Content, part Part, options Options, htmlOptions HTMLOptions) (string, error) {
	if !part.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPart, part)
	}

	ctx, span := r.tracer.Start(ctx, "essence.render", trace.WithAttributes(
		attribute.String("essence.part", string(part)),
	))
	defer span.End()

	locale := r.localeFor(options)

	if content == nil {
		span.SetAttributes(attribute.String("essence.outcome", "no_content"))
		r.warn(ctx, part, locale, "Content is nil", keyContentNotFound)
		return "", nil
	}
	if isNilEssence(content.Essence) {
		span.SetAttributes(attribute.String("essence.outcome", "no_essence"))
		r.warn(ctx, part, locale, "Essence is nil", keyEssenceNotFound)
		return "", nil
	}

	partial := PartialPath(content.Essence.PartialName(), part)
	span.SetAttributes(attribute.String("essence.partial", partial))

	tmpl, err := r.partials.Lookup(partial)
	if err != nil {
		return "", r.fail(span, &RenderError{Partial: partial, Part: part, Err: err})
	}

	data := &PartialData{
		Content:     content,
		Essence:     content.Essence,
		Options:     options,
		HTMLOptions: htmlOptions,
		Part:        part,
		Locale:      locale,
		PictureURL:  r.pictureURL(ctx, content),
		translator:  r.translator,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", r.fail(span, &RenderError{Partial: partial, Part: part, Err: err})
	}

	span.SetAttributes(attribute.String("essence.outcome", "rendered"))
	return buf.String(), nil
}

func (r *renderer) warn(ctx context.Context, part Part, locale, message, key string) {
	if part != PartEditor {
		return
	}
	r.warner.Warn(ctx, message, r.translator.T(locale, key))
}

func (r *renderer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (r *renderer) localeFor(options Options) string {
	if v, ok := options.Get("locale"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return r.locale
}

// pictureURL resolves the preview URL for picture essences. A store failure
// is logged and leaves the URL empty so the rest of the page still renders.
func (r *renderer) pictureURL(ctx context.Context, content *Content) string {
	p, ok := content.Essence.(Pictured)
	if !ok || r.pictures == nil || p.PictureKey() == "" {
		return ""
	}
	url, err := r.pictures.GetPreviewURL(ctx, p.PictureKey())
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to resolve picture URL",
			"content_id", content.ID, "object_key", p.PictureKey(), "error", err)
		return ""
	}
	return url
}

// isNilEssence reports a missing essence, including a typed nil pointer
// stored in the interface.
func isNilEssence(e Essence) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// findContent treats a nil finder like a lookup miss.
func findContent(element ContentFinder, name string) *Content {
	if element == nil {
		return nil
	}
	return element.ContentByName(name)
}

// PartialData is the template context passed to every essence partial.
type PartialData struct {
	Content     *Content
	Essence     Essence
	Options     Options
	HTMLOptions HTMLOptions
	Part        Part
	Locale      string
	PictureURL  string

	translator Translator
}

// Setting resolves key from options first, then the content's settings.
func (d *PartialData) Setting(key string) any {
	v, _ := ValueFromSettingsOrOptions(d.Content, d.Options, key)
	return v
}

// FormFieldName is the form field name for the essence's ingredient column.
func (d *PartialData) FormFieldName() string {
	return d.Content.FormFieldName(d.Essence.IngredientColumn())
}

// FieldName is the form field name for an arbitrary essence column.
func (d *PartialData) FieldName(column string) string {
	return d.Content.FormFieldName(column)
}

// T translates key for the locale of this render call.
func (d *PartialData) T(key string) string {
	if d.translator == nil {
		return humanize(key)
	}
	return d.translator.T(d.Locale, key)
}
