package catalog

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

// Memory is an in-process catalog used by the memory store driver and in tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string]domain.CatalogItem
}

func NewMemory(items ...domain.CatalogItem) *Memory {
	m := &Memory{items: make(map[string]domain.CatalogItem, len(items))}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

// Put inserts or replaces an item.
func (m *Memory) Put(item domain.CatalogItem) {
	m.mu.Lock()
	m.items[item.ID] = item
	m.mu.Unlock()
}

// Delete removes an item, as if it were dropped from the catalog.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
}

func (m *Memory) GetActive(_ context.Context, id string) (*domain.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok || !item.Active {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (m *Memory) Lookup(_ context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}
