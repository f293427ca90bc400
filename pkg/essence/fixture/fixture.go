// Package fixture loads elements, contents and essences from YAML documents
// into an essence.Repository. It backs the CLI and seeds development servers.
//
//	elements:
//	  - name: article
//	    contents:
//	      - name: intro
//	        essence_type: EssenceText
//	        essence: {body: "hello!"}
//	        settings: {":css_class": lead}
//	pictures:
//	  - key: logo.png
//	    file: logo.png
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-essence/pkg/essence"
	"gopkg.in/yaml.v3"
)

// File is a parsed fixture document.
type File struct {
	Elements []Element `yaml:"elements"`
	Pictures []Picture `yaml:"pictures"`

	// dir resolves relative picture files; empty for in-memory documents.
	dir string
}

// Element describes one element and its contents.
type Element struct {
	Name     string    `yaml:"name"`
	Position int       `yaml:"position"`
	Public   *bool     `yaml:"public"`
	Contents []Content `yaml:"contents"`
}

// Content describes one content slot. Dangling creates an essence reference
// with no essence record behind it.
type Content struct {
	Name        string         `yaml:"name"`
	EssenceType string         `yaml:"essence_type"`
	Essence     map[string]any `yaml:"essence"`
	Settings    map[string]any `yaml:"settings"`
	Dangling    bool           `yaml:"dangling"`
}

// Picture is a blob uploaded to the picture store. Exactly one of Data and
// File is set.
type Picture struct {
	Key  string `yaml:"key"`
	Data string `yaml:"data"`
	File string `yaml:"file"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

func (f *File) validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, el := range f.Elements {
		if el.Name == "" {
			errs = append(errs, fmt.Errorf("elements[%d]: name is required", i))
		}
		if seen[el.Name] {
			errs = append(errs, fmt.Errorf("elements[%d]: duplicate element %q", i, el.Name))
		}
		seen[el.Name] = true

		names := make(map[string]bool)
		for j, c := range el.Contents {
			where := fmt.Sprintf("elements[%d].contents[%d]", i, j)
			if c.Name == "" {
				errs = append(errs, fmt.Errorf("%s: name is required", where))
			}
			if names[c.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate content %q", where, c.Name))
			}
			names[c.Name] = true
			if c.EssenceType == "" {
				errs = append(errs, fmt.Errorf("%s: essence_type is required", where))
			} else if _, err := essence.NewEssence(c.EssenceType); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	for i, p := range f.Pictures {
		if p.Key == "" {
			errs = append(errs, fmt.Errorf("pictures[%d]: key is required", i))
		}
		if (p.Data == "") == (p.File == "") {
			errs = append(errs, fmt.Errorf("pictures[%d]: exactly one of data and file is required", i))
		}
	}
	return errors.Join(errs...)
}

// Apply writes every element of the fixture to repo and returns the stored
// elements with their contents loaded, in fixture order.
func (f *File) Apply(ctx context.Context, repo essence.Repository) ([]*essence.Element, error) {
	var out []*essence.Element
	for _, el := range f.Elements {
		element := &essence.Element{
			Name:     el.Name,
			Position: el.Position,
			Public:   el.Public == nil || *el.Public,
		}
		if err := repo.CreateElement(ctx, element); err != nil {
			return nil, fmt.Errorf("create element %s: %w", el.Name, err)
		}

		for i, c := range el.Contents {
			if err := applyContent(ctx, repo, element.ID, i+1, c); err != nil {
				return nil, fmt.Errorf("element %s: %w", el.Name, err)
			}
		}

		stored, err := repo.GetElement(ctx, element.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func applyContent(ctx context.Context, repo essence.Repository, elementID uuid.UUID, position int, c Content) error {
	content := &essence.Content{
		ElementID:   elementID,
		Name:        c.Name,
		EssenceType: c.EssenceType,
		Position:    position,
		Settings:    essence.NewSettings(c.Settings),
	}

	switch {
	case c.Dangling:
		content.EssenceID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	case c.Essence != nil:
		payload, err := json.Marshal(c.Essence)
		if err != nil {
			return fmt.Errorf("content %s: encode essence: %w", c.Name, err)
		}
		e, err := essence.DecodeEssence(c.EssenceType, payload)
		if err != nil {
			return fmt.Errorf("content %s: %w", c.Name, err)
		}
		id := uuid.New()
		if err := repo.CreateEssence(ctx, id, e); err != nil {
			return fmt.Errorf("content %s: create essence: %w", c.Name, err)
		}
		content.EssenceID = uuid.NullUUID{UUID: id, Valid: true}
	}

	if err := repo.CreateContent(ctx, content); err != nil {
		return fmt.Errorf("content %s: %w", c.Name, err)
	}
	return nil
}

// UploadPictures stores every fixture picture in store.
func (f *File) UploadPictures(ctx context.Context, store essence.PictureStore) error {
	for _, p := range f.Pictures {
		if p.Data != "" {
			if err := store.Upload(ctx, p.Key, strings.NewReader(p.Data)); err != nil {
				return err
			}
			continue
		}
		path := p.File
		if !filepath.IsAbs(path) && f.dir != "" {
			path = filepath.Join(f.dir, path)
		}
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open picture %s: %w", p.Key, err)
		}
		err = store.Upload(ctx, p.Key, file)
		file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// FindElement returns the element named name, or nil.
func FindElement(elements []*essence.Element, name string) *essence.Element {
	for _, el := range elements {
		if el.Name == name {
			return el
		}
	}
	return nil
}
