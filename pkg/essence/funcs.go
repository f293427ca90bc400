package essence

import (
	"html"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
	attrName     = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"attrs":      htmlAttrs,
		"sanitize":   sanitizeHTML,
		"strip":      stripTags,
		"truncate":   truncate,
		"formatDate": formatDate,
		"raw":        rawHTML,
	}
}

// htmlAttrs renders HTMLOptions as escaped attributes in key order. Invalid
// attribute names are dropped.
func htmlAttrs(opts HTMLOptions) template.HTMLAttr {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		if attrName.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(opts[k]))
		b.WriteByte('"')
	}
	return template.HTMLAttr(b.String())
}

func sanitizeHTML(s string) template.HTML {
	return template.HTML(ugcPolicy.Sanitize(s))
}

// rawHTML marks trusted markup, such as HTML essence sources, as safe.
func rawHTML(s string) template.HTML {
	return template.HTML(s)
}

func stripTags(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

func truncate(limit int, s string) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}

// formatDate accepts a Go layout and an RFC 3339 timestamp. An unparsable
// value is returned unchanged.
func formatDate(layout any, value string) string {
	l, _ := layout.(string)
	if l == "" {
		l = "2006-01-02"
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format(l)
}
