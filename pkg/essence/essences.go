package essence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/stoewer/go-strcase"
)

// Essence is the typed value object wrapped by a Content.
type Essence interface {
	// EssenceType is the registered type name, e.g. "EssenceText".
	EssenceType() string

	// PartialName is the template lookup name derived from the type,
	// e.g. "essence_text".
	PartialName() string

	// Ingredient is the primary payload as a string.
	Ingredient() string

	// IngredientColumn is the form column editors write the ingredient to.
	IngredientColumn() string

	// Link is the optional link value, empty when unset.
	Link() string
}

// Pictured is implemented by essences that reference a stored picture.
type Pictured interface {
	PictureKey() string
}

// Essence type names.
const (
	TypeText     = "EssenceText"
	TypeRichtext = "EssenceRichtext"
	TypePicture  = "EssencePicture"
	TypeLink     = "EssenceLink"
	TypeBoolean  = "EssenceBoolean"
	TypeDate     = "EssenceDate"
	TypeHTML     = "EssenceHtml"
)

// PartialNameFor derives the partial name for an essence type name.
func PartialNameFor(essenceType string) string {
	return strcase.SnakeCase(essenceType)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Essence{
		TypeText:     func() Essence { return &TextEssence{} },
		TypeRichtext: func() Essence { return &RichtextEssence{} },
		TypePicture:  func() Essence { return &PictureEssence{} },
		TypeLink:     func() Essence { return &LinkEssence{} },
		TypeBoolean:  func() Essence { return &BooleanEssence{} },
		TypeDate:     func() Essence { return &DateEssence{} },
		TypeHTML:     func() Essence { return &HTMLEssence{} },
	}
)

// RegisterEssenceType makes a custom essence type known to repositories and
// fixtures. Registering an existing name replaces its constructor.
func RegisterEssenceType(name string, factory func() Essence) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// EssenceTypes returns the registered type names in sorted order.
func EssenceTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEssence returns a zero essence of the named type.
func NewEssence(essenceType string) (Essence, error) {
	registryMu.RLock()
	factory, ok := registry[essenceType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEssenceType, essenceType)
	}
	return factory(), nil
}

// DecodeEssence builds an essence of the named type from its JSON payload.
func DecodeEssence(essenceType string, data []byte) (Essence, error) {
	e, err := NewEssence(essenceType)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return e, nil
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", essenceType, err)
	}
	return e, nil
}

// EncodeEssence serializes an essence payload to JSON.
func EncodeEssence(e Essence) ([]byte, error) {
	return json.Marshal(e)
}

// TextEssence is a single line of text with an optional link.
type TextEssence struct {
	Body       string `json:"body"`
	LinkURL    string `json:"link,omitempty"`
	LinkTitle  string `json:"link_title,omitempty"`
	LinkTarget string `json:"link_target,omitempty"`
}

func (e *TextEssence) EssenceType() string      { return TypeText }
func (e *TextEssence) PartialName() string      { return PartialNameFor(TypeText) }
func (e *TextEssence) Ingredient() string       { return e.Body }
func (e *TextEssence) IngredientColumn() string { return "body" }
func (e *TextEssence) Link() string             { return e.LinkURL }

// RichtextEssence holds an HTML body that is sanitized before display.
type RichtextEssence struct {
	Body string `json:"body"`
}

func (e *RichtextEssence) EssenceType() string      { return TypeRichtext }
func (e *RichtextEssence) PartialName() string      { return PartialNameFor(TypeRichtext) }
func (e *RichtextEssence) Ingredient() string       { return e.Body }
func (e *RichtextEssence) IngredientColumn() string { return "body" }
func (e *RichtextEssence) Link() string             { return "" }

// PictureEssence references a picture held in a PictureStore.
type PictureEssence struct {
	ObjectKey string `json:"object_key"`
	Caption   string `json:"caption,omitempty"`
	Title     string `json:"title,omitempty"`
	AltTag    string `json:"alt_tag,omitempty"`
	LinkURL   string `json:"link,omitempty"`
}

func (e *PictureEssence) EssenceType() string      { return TypePicture }
func (e *PictureEssence) PartialName() string      { return PartialNameFor(TypePicture) }
func (e *PictureEssence) Ingredient() string       { return e.ObjectKey }
func (e *PictureEssence) IngredientColumn() string { return "object_key" }
func (e *PictureEssence) Link() string             { return e.LinkURL }
func (e *PictureEssence) PictureKey() string       { return e.ObjectKey }

// LinkEssence is a bare link.
type LinkEssence struct {
	LinkURL    string `json:"link"`
	LinkTitle  string `json:"link_title,omitempty"`
	LinkTarget string `json:"link_target,omitempty"`
}

func (e *LinkEssence) EssenceType() string      { return TypeLink }
func (e *LinkEssence) PartialName() string      { return PartialNameFor(TypeLink) }
func (e *LinkEssence) Ingredient() string       { return e.LinkURL }
func (e *LinkEssence) IngredientColumn() string { return "link" }
func (e *LinkEssence) Link() string             { return e.LinkURL }

// BooleanEssence is a checkbox value.
type BooleanEssence struct {
	Value bool `json:"value"`
}

func (e *BooleanEssence) EssenceType() string      { return TypeBoolean }
func (e *BooleanEssence) PartialName() string      { return PartialNameFor(TypeBoolean) }
func (e *BooleanEssence) Ingredient() string       { return strconv.FormatBool(e.Value) }
func (e *BooleanEssence) IngredientColumn() string { return "value" }
func (e *BooleanEssence) Link() string             { return "" }

// DateEssence holds a point in time.
type DateEssence struct {
	Date time.Time `json:"date"`
}

func (e *DateEssence) EssenceType() string { return TypeDate }
func (e *DateEssence) PartialName() string { return PartialNameFor(TypeDate) }
func (e *DateEssence) Ingredient() string {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format(time.RFC3339)
}
func (e *DateEssence) IngredientColumn() string { return "date" }
func (e *DateEssence) Link() string             { return "" }

// HTMLEssence holds raw HTML rendered without escaping.
type HTMLEssence struct {
	Source string `json:"source"`
}

func (e *HTMLEssence) EssenceType() string      { return TypeHTML }
func (e *HTMLEssence) PartialName() string      { return PartialNameFor(TypeHTML) }
func (e *HTMLEssence) Ingredient() string       { return e.Source }
func (e *HTMLEssence) IngredientColumn() string { return "source" }
func (e *HTMLEssence) Link() string             { return "" }
