package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-essence/pkg/essence"
)

// Repository implements essence.Repository using in-memory storage
type Repository struct {
	mu                sync.RWMutex
	elements          map[uuid.UUID]*essence.Element
	contents          map[uuid.UUID]*essence.Content
	essences          map[uuid.UUID]storedEssence
	contentsByElement map[uuid.UUID][]uuid.UUID // element_id -> []content_id
}

// Essences are kept encoded so callers never share a mutable value with the store.
type storedEssence struct {
	essenceType string
	data        []byte
}

// New creates a new in-memory repository
func New() essence.Repository {
	return &Repository{
		elements:          make(map[uuid.UUID]*essence.Element),
		contents:          make(map[uuid.UUID]*essence.Content),
		essences:          make(map[uuid.UUID]storedEssence),
		contentsByElement: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Element operations

func (r *Repository) CreateElement(ctx context.Context, element *essence.Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if element.ID == uuid.Nil {
		element.ID = uuid.New()
	}
	now := time.Now().UTC()
	if element.CreatedAt.IsZero() {
		element.CreatedAt = now
	}
	element.UpdatedAt = now

	// Create a copy to avoid external modifications; contents are stored separately
	elementCopy := *element
	elementCopy.Contents = nil
	r.elements[element.ID] = &elementCopy
	return nil
}

func (r *Repository) GetElement(ctx context.Context, id uuid.UUID) (*essence.Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	element, exists := r.elements[id]
	if !exists {
		return nil, essence.ErrElementNotFound
	}
	return r.loadElement(element)
}

func (r *Repository) ListElements(ctx context.Context) ([]*essence.Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*essence.Element, 0, len(r.elements))
	for _, element := range r.elements {
		loaded, err := r.loadElement(element)
		if err != nil {
			return nil, err
		}
		result = append(result, loaded)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *Repository) DeleteElement(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.elements[id]; !exists {
		return essence.ErrElementNotFound
	}
	for _, contentID := range r.contentsByElement[id] {
		delete(r.contents, contentID)
	}
	delete(r.contentsByElement, id)
	delete(r.elements, id)
	return nil
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, content *essence.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.elements[content.ElementID]; !exists {
		return essence.ErrElementNotFound
	}
	if content.ID == uuid.Nil {
		content.ID = uuid.New()
	}
	now := time.Now().UTC()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = now
	}
	content.UpdatedAt = now

	contentCopy := *content
	contentCopy.Settings = essence.NewSettings(content.Settings)
	contentCopy.Essence = nil
	r.contents[content.ID] = &contentCopy
	r.contentsByElement[content.ElementID] = append(r.contentsByElement[content.ElementID], content.ID)
	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*essence.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, exists := r.contents[id]
	if !exists {
		return nil, essence.ErrContentNotFound
	}
	return r.loadContent(content)
}

func (r *Repository) UpdateContentSettings(ctx context.Context, id uuid.UUID, settings essence.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, exists := r.contents[id]
	if !exists {
		return essence.ErrContentNotFound
	}
	content.Settings = essence.NewSettings(settings)
	content.UpdatedAt = time.Now().UTC()
	return nil
}

// Essence operations

func (r *Repository) CreateEssence(ctx context.Context, id uuid.UUID, e essence.Essence) error {
	data, err := essence.EncodeEssence(e)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.essences[id] = storedEssence{essenceType: e.EssenceType(), data: data}
	return nil
}

func (r *Repository) GetEssence(ctx context.Context, id uuid.UUID) (essence.Essence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.essences[id]
	if !exists {
		return nil, essence.ErrEssenceNotFound
	}
	return essence.DecodeEssence(stored.essenceType, stored.data)
}

func (r *Repository) DeleteEssence(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.essences[id]; !exists {
		return essence.ErrEssenceNotFound
	}
	delete(r.essences, id)
	return nil
}

// loadElement copies element and attaches its contents ordered by position.
// Callers must hold the read lock.
func (r *Repository) loadElement(element *essence.Element) (*essence.Element, error) {
	elementCopy := *element
	elementCopy.Contents = nil
	for _, contentID := range r.contentsByElement[element.ID] {
		content, exists := r.contents[contentID]
		if !exists {
			continue
		}
		loaded, err := r.loadContent(content)
		if err != nil {
			return nil, err
		}
		elementCopy.Contents = append(elementCopy.Contents, loaded)
	}
	sort.SliceStable(elementCopy.Contents, func(i, j int) bool {
		return elementCopy.Contents[i].Position < elementCopy.Contents[j].Position
	})
	return &elementCopy, nil
}

// loadContent copies content and resolves its essence. A dangling essence
// reference leaves Essence nil. Callers must hold the read lock.
func (r *Repository) loadContent(content *essence.Content) (*essence.Content, error) {
	contentCopy := *content
	contentCopy.Settings = essence.NewSettings(content.Settings)
	if !content.EssenceID.Valid {
		return &contentCopy, nil
	}
	stored, exists := r.essences[content.EssenceID.UUID]
	if !exists {
		return &contentCopy, nil
	}
	e, err := essence.DecodeEssence(stored.essenceType, stored.data)
	if err != nil {
		return nil, &essence.ContentError{ContentID: content.ID, Op: "load essence", Err: err}
	}
	contentCopy.Essence = e
	return &contentCopy, nil
}
