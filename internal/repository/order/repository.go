package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists orders. Orders are never deleted.
type Repository interface {
	// Create stores the order and its line snapshots. Implementations that share
	// storage with carts also delete the owner's cart in the same transaction.
	// A repeated (user, idempotency key) pair yields domain.ErrAlreadyExists.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	// ListByUser and ListAll return newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus changes status and updated_at only.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error)
	// ClearsCart reports whether Create deletes the owner's cart itself.
	ClearsCart() bool
}
