package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// Memory is an in-process Repository. It does not own carts, so callers clear
// the owner's cart themselves after Create.
type Memory struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	seq    map[string]int
	next   int
}

func NewMemory() *Memory {
	return &Memory{
		orders: make(map[string]*domain.Order),
		seq:    make(map[string]int),
	}
}

func (m *Memory) ClearsCart() bool { return false }

func (m *Memory) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if o.IdempotencyKey != "" {
		for _, existing := range m.orders {
			if existing.UserID == o.UserID && existing.IdempotencyKey == o.IdempotencyKey {
				return domain.ErrAlreadyExists
			}
		}
	}
	m.orders[o.ID] = cloneOrder(o)
	m.seq[o.ID] = m.next
	m.next++
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) GetByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (m *Memory) ListAll(_ context.Context) ([]domain.Order, error) {
	return m.list(func(*domain.Order) bool { return true }), nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return cloneOrder(o), nil
}

func (m *Memory) list(keep func(*domain.Order) bool) []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	// newest first; insertion order breaks timestamp ties
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	return out
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderLine(nil), o.Items...)
	if cp.Items == nil {
		cp.Items = []domain.OrderLine{}
	}
	return &cp
}
