package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
)

// NewMemory returns in-process repositories, used by tests and dry runs.
func NewMemory() Repositories {
	return Repositories{
		Items:      &memoryItems{items: make(map[uuid.UUID]*entity.Item)},
		Categories: &memoryCategories{},
	}
}

type memoryCategories struct {
	mu         sync.RWMutex
	categories []*entity.Category
}

type memoryItems struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.Item
	order []uuid.UUID
}

func (m *memoryCategories) CategoryIDByName(_ context.Context, name string) (uuid.UUID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.Name == name {
			return c.ID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (m *memoryItems) Get(_ context.Context, id uuid.UUID) (*entity.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, common.NewAppError(common.CodeNotFound, "item not found: "+id.String(), common.ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

func (m *memoryCategories) Get(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.NewAppError(common.CodeNotFound, "category not found: "+id.String(), common.ErrNotFound)
}

func (m *memoryCategories) EnsureDefaults(_ context.Context, defs []constants.CategoryDef) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := 0
	for _, def := range defs {
		found := false
		for _, c := range m.categories {
			if c.Name == def.Name {
				found = true
				break
			}
		}
		if found {
			continue
		}
		m.categories = append(m.categories, &entity.Category{
			ID:          uuid.New(),
			Name:        def.Name,
			Description: def.Description,
			Color:       def.Color,
			Icon:        def.Icon,
			CreatedAt:   time.Now(),
		})
		created++
	}
	return created, nil
}

func (m *memoryItems) ExistsByHash(_ context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(func(i *entity.Item) bool { return i.FileHash != nil && *i.FileHash == hash }), nil
}

func (m *memoryItems) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(func(i *entity.Item) bool { return i.SourceURL != nil && *i.SourceURL == url }), nil
}

func (m *memoryItems) findLocked(match func(*entity.Item) bool) bool {
	for _, item := range m.items {
		if match(item) {
			return true
		}
	}
	return false
}

func (m *memoryItems) Create(_ context.Context, item *entity.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := m.findLocked(func(i *entity.Item) bool {
		return (item.FileHash != nil && i.FileHash != nil && *i.FileHash == *item.FileHash) ||
			(item.SourceURL != nil && i.SourceURL != nil && *i.SourceURL == *item.SourceURL)
	})
	if dup {
		return common.NewAppError(common.CodeDuplicateContent, "item already exists", common.ErrDuplicateContent)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	cp := *item
	m.items[item.ID] = &cp
	m.order = append(m.order, item.ID)
	return nil
}

func (m *memoryItems) List(_ context.Context, filter ListFilter) ([]*entity.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Item
	for _, id := range m.order {
		item := m.items[id]
		if filter.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.ContentType != "" && item.ContentType != filter.ContentType {
			continue
		}
		cp := *item
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memoryItems) UpdateClassification(_ context.Context, id uuid.UUID, categoryID *uuid.UUID, confidence float64) error {
	return m.update(id, func(i *entity.Item) {
		i.CategoryID = categoryID
		i.Confidence = confidence
	})
}

func (m *memoryItems) SetThumbnail(_ context.Context, id uuid.UUID, rel string) error {
	return m.update(id, func(i *entity.Item) { i.ThumbnailPath = &rel })
}

func (m *memoryItems) update(id uuid.UUID, fn func(*entity.Item)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return common.NewAppError(common.CodeNotFound, "item not found: "+id.String(), common.ErrNotFound)
	}
	fn(item)
	item.UpdatedAt = time.Now()
	return nil
}

func (m *memoryCategories) List(_ context.Context) ([]*entity.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.Category, len(m.categories))
	for i, c := range m.categories {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}
