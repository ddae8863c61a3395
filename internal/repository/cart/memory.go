package cart

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
)

// Memory keeps carts in process. Mutations for one user are serialized by a
// per-user mutex; different users never contend beyond the map lookup.
type Memory struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	locks map[string]*userLock
	now   func() time.Time
}

// userLock is dropped from Memory.locks once no goroutine holds or waits on it.
type userLock struct {
	sync.Mutex
	refs int
}

func NewMemory() *Memory {
	return &Memory{
		carts: make(map[string]*domain.Cart),
		locks: make(map[string]*userLock),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Get(_ context.Context, userID string) (*domain.Cart, error) {
	unlock := m.lockUser(userID)
	defer unlock()

	cart := m.load(userID)
	if cart == nil {
		return nil, domain.ErrCartNotFound
	}
	out := *cart
	out.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &out, nil
}

func (m *Memory) AddOne(_ context.Context, userID, itemID string) error {
	unlock := m.lockUser(userID)
	defer unlock()

	now := m.now()
	cart := m.load(userID)
	if cart == nil {
		cart = &domain.Cart{UserID: userID, CreatedAt: now}
	}
	cart.UpdatedAt = now
	if i := indexOf(cart.Lines, itemID); i >= 0 {
		cart.Lines[i].Quantity++
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{ItemID: itemID, Quantity: 1, AddedAt: now})
	}
	m.store(userID, cart)
	return nil
}

func (m *Memory) SetQuantity(_ context.Context, userID, itemID string, quantity int) error {
	unlock := m.lockUser(userID)
	defer unlock()

	cart := m.load(userID)
	if cart == nil {
		return domain.ErrCartNotFound
	}
	i := indexOf(cart.Lines, itemID)
	if i < 0 {
		return domain.ErrItemNotInCart
	}
	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = quantity
	}
	cart.UpdatedAt = m.now()
	return nil
}

func (m *Memory) Remove(_ context.Context, userID, itemID string) error {
	unlock := m.lockUser(userID)
	defer unlock()

	cart := m.load(userID)
	if cart == nil {
		return nil
	}
	if i := indexOf(cart.Lines, itemID); i >= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		cart.UpdatedAt = m.now()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, userID string) error {
	unlock := m.lockUser(userID)
	defer unlock()

	m.mu.Lock()
	delete(m.carts, userID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) lockUser(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

// load and store must be called with the user's lock held.
func (m *Memory) load(userID string) *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

func (m *Memory) store(userID string, cart *domain.Cart) {
	m.mu.Lock()
	m.carts[userID] = cart
	m.mu.Unlock()
}

func indexOf(lines []domain.CartLine, itemID string) int {
	for i, l := range lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}
