package essence

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var defaultLocales embed.FS

// Catalog is a Translator backed by flat YAML files, one per locale.
//
// Lookups for an unsupported locale fall back to the closest supported one,
// then to the default locale. Missing keys are humanized.
type Catalog struct {
	defaultLocale string
	tags          []language.Tag
	matcher       language.Matcher
	messages      map[string]map[string]string
}

// DefaultCatalog loads the catalogs shipped with the package.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultLocales, "locales", "en")
	if err != nil {
		panic(fmt.Sprintf("essence: embedded locales are invalid: %v", err))
	}
	return c
}

// LoadCatalog reads every <locale>.yml file under dir in fsys.
func LoadCatalog(fsys fs.FS, dir, defaultLocale string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	defaultTag := language.Make(defaultLocale)
	c := &Catalog{
		defaultLocale: defaultTag.String(),
		messages:      make(map[string]map[string]string),
	}
	// The default locale goes first so the matcher prefers it on ties.
	c.tags = append(c.tags, defaultTag)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yml" {
			continue
		}
		locale := strings.TrimSuffix(name, ".yml")
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", locale, err)
		}
		messages := make(map[string]string)
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", locale, err)
		}
		// Messages are keyed by the canonical tag, so "zh_Hant.yml" serves "zh-Hant".
		tag := language.Make(locale)
		c.messages[tag.String()] = messages
		if tag.String() != c.defaultLocale {
			c.tags = append(c.tags, tag)
		}
	}

	if _, ok := c.messages[c.defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", defaultLocale)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales returns the supported locales, default first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// T translates key for locale.
func (c *Catalog) T(locale, key string) string {
	if msg, ok := c.messages[c.resolve(locale)][key]; ok {
		return msg
	}
	if msg, ok := c.messages[c.defaultLocale][key]; ok {
		return msg
	}
	return humanize(key)
}

func (c *Catalog) resolve(locale string) string {
	if locale == "" {
		return c.defaultLocale
	}
	tag := language.Make(locale)
	if _, ok := c.messages[tag.String()]; ok {
		return tag.String()
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return c.defaultLocale
	}
	return c.tags[idx].String()
}

func humanize(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
