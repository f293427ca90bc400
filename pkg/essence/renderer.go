package essence

import "context"

// Renderer defines the essence rendering operations.
//
// Every method returns "" with a nil error when the content or its essence
// is absent. In the editor part that case also emits one warning.
type Renderer interface {
	// RenderEssence renders the partial essences/<partial-name>_<part>.
	RenderEssence(ctx context.Context, content *Content, part Part, options Options) (string, error)

	// RenderEssenceWithHTMLOptions is RenderEssence with extra HTML attributes.
	RenderEssenceWithHTMLOptions(ctx context.Context, content *Content, part Part, options Options, htmlOptions HTMLOptions) (string, error)

	// RenderEssenceView renders the view part.
	RenderEssenceView(ctx context.Context, content *Content, options Options) (string, error)

	// RenderEssenceEditor renders the editor part.
	RenderEssenceEditor(ctx context.Context, content *Content, options Options) (string, error)

	// RenderEssenceViewByName looks the content up by name and renders its view part.
	RenderEssenceViewByName(ctx context.Context, element ContentFinder, name string, options Options) (string, error)

	// RenderEssenceEditorByName looks the content up by name and renders its editor part.
	RenderEssenceEditorByName(ctx context.Context, element ContentFinder, name string, options Options) (string, error)
}
