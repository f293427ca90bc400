package essence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialNameFor(t *testing.T) {
	tests := map[string]string{
		TypeText:     "essence_text",
		TypeRichtext: "essence_richtext",
		TypePicture:  "essence_picture",
		TypeLink:     "essence_link",
		TypeBoolean:  "essence_boolean",
		TypeDate:     "essence_date",
		TypeHTML:     "essence_html",
	}
	for essenceType, want := range tests {
		assert.Equal(t, want, PartialNameFor(essenceType), essenceType)

		e, err := NewEssence(essenceType)
		require.NoError(t, err)
		assert.Equal(t, essenceType, e.EssenceType())
		assert.Equal(t, want, e.PartialName())
	}
}

func TestPartialPath(t *testing.T) {
	assert.Equal(t, "essences/essence_text_view", PartialPath("essence_text", PartView))
	assert.Equal(t, "essences/essence_picture_editor", PartialPath("essence_picture", PartEditor))
}

func TestNewEssence_Unknown(t *testing.T) {
	_, err := NewEssence("EssenceVideo")
	assert.ErrorIs(t, err, ErrUnknownEssenceType)

	_, err = DecodeEssence("EssenceVideo", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEssenceType)
}

func TestEncodeDecodeEssence(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	original := &DateEssence{Date: date}

	data, err := EncodeEssence(original)
	require.NoError(t, err)

	decoded, err := DecodeEssence(TypeDate, data)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T10:00:00Z", decoded.Ingredient())

	empty, err := DecodeEssence(TypeText, nil)
	require.NoError(t, err)
	assert.Equal(t, "", empty.Ingredient())

	_, err = DecodeEssence(TypeText, []byte(`{"body": 12}`))
	assert.Error(t, err)
}

type quoteEssence struct {
	TextEssence
	Author string `json:"author"`
}

func (e *quoteEssence) EssenceType() string { return "EssenceQuote" }
func (e *quoteEssence) PartialName() string { return PartialNameFor("EssenceQuote") }

func TestRegisterEssenceType(t *testing.T) {
	RegisterEssenceType("EssenceQuote", func() Essence { return &quoteEssence{} })
	assert.Contains(t, EssenceTypes(), "EssenceQuote")

	e, err := DecodeEssence("EssenceQuote", []byte(`{"body":"To be","author":"W."}`))
	require.NoError(t, err)
	assert.Equal(t, "essence_quote", e.PartialName())
	assert.Equal(t, "To be", e.Ingredient())
	assert.Equal(t, "W.", e.(*quoteEssence).Author)
}

func TestEssenceIngredients(t *testing.T) {
	assert.Equal(t, "false", (&BooleanEssence{}).Ingredient())
	assert.Equal(t, "", (&DateEssence{}).Ingredient())
	assert.Equal(t, "logo.png", (&PictureEssence{ObjectKey: "logo.png"}).PictureKey())
	assert.Equal(t, "https://example.com", (&TextEssence{LinkURL: "https://example.com"}).Link())
	assert.Equal(t, "", (&RichtextEssence{}).Link())
}
