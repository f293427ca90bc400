package essence

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

//go:embed templates
var defaultTemplates embed.FS

const (
	defaultTemplateRoot = "templates"
	partialExt          = ".html"
)

// PartialPath builds the conventional partial name for an essence and part.
func PartialPath(partialName string, part Part) string {
	return fmt.Sprintf("essences/%s_%s", partialName, part)
}

// partialSet loads partials lazily from an fs.FS and caches the parsed
// templates. A zero ttl keeps parsed templates forever.
type partialSet struct {
	fsys  fs.FS
	root  string
	funcs template.FuncMap
	cache *gocache.Cache
}

func newPartialSet(fsys fs.FS, root string, funcs template.FuncMap, ttl time.Duration) *partialSet {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &partialSet{
		fsys:  fsys,
		root:  root,
		funcs: funcs,
		cache: gocache.New(expiration, cleanup),
	}
}

// Lookup returns the parsed template for name, e.g. "essences/essence_text_view".
func (p *partialSet) Lookup(name string) (*template.Template, error) {
	if v, ok := p.cache.Get(name); ok {
		if t, ok := v.(*template.Template); ok {
			return t, nil
		}
	}

	file := path.Join(p.root, name+partialExt)
	src, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPartialNotFound, name)
		}
		return nil, fmt.Errorf("read partial %s: %w", name, err)
	}

	t, err := template.New(name).Funcs(p.funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse partial %s: %w", name, err)
	}
	p.cache.SetDefault(name, t)
	return t, nil
}
