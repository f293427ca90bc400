package essence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{"en", "de"}, c.Locales())
	assert.Equal(t, "Field for content not present.", c.T("en", "content_not_found"))
	assert.Equal(t, "Feld für Inhalt nicht vorhanden.", c.T("de", "content_not_found"))
}

func TestCatalogFallbacks(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, "Linktitel", c.T("de-AT", "link_title"), "regional variant falls back to its language")
	assert.Equal(t, "Link title", c.T("fr", "link_title"), "unsupported locale falls back to the default")
	assert.Equal(t, "Link title", c.T("", "link_title"))
	assert.Equal(t, "Some missing key", c.T("de", "some_missing_key"))
}

func TestLoadCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"i18n/de.yml":    {Data: []byte("greeting: Hallo\n")},
		"i18n/nl.yml":    {Data: []byte("greeting: Hallo\nfarewell: Doei\n")},
		"i18n/notes.txt": {Data: []byte("ignored")},
	}

	c, err := LoadCatalog(fsys, "i18n", "de")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"de", "nl"}, c.Locales())
	assert.Equal(t, "Doei", c.T("nl", "farewell"))
	assert.Equal(t, "Farewell", c.T("de", "farewell"))

	_, err = LoadCatalog(fsys, "i18n", "en")
	assert.Error(t, err, "default locale must have a catalog")

	_, err = LoadCatalog(fstest.MapFS{"i18n/en.yml": {Data: []byte("- not a map")}}, "i18n", "en")
	assert.Error(t, err)

	_, err = LoadCatalog(fsys, "missing", "en")
	assert.Error(t, err)
}

func TestLoadCatalog_UnderscoreLocaleFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"i18n/en.yml":      {Data: []byte("greeting: Hello\n")},
		"i18n/zh_Hant.yml": {Data: []byte("greeting: 你好\n")},
	}

	c, err := LoadCatalog(fsys, "i18n", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "zh-Hant"}, c.Locales())
	assert.Equal(t, "你好", c.T("zh-Hant", "greeting"))
	assert.Equal(t, "你好", c.T("zh_Hant", "greeting"))
	assert.Equal(t, "Hello", c.T("fr", "greeting"))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Über uns", humanize("über_uns"))
	assert.Equal(t, "Link title", humanize("link_title"))
	assert.Equal(t, "", humanize(""))
}
