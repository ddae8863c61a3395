package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores one cart per user. Every mutation is atomic per user.
type Repository interface {
	// Get returns the stored cart or domain.ErrCartNotFound.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// AddOne creates the cart if needed and inserts the item with quantity 1
	// or increments the existing line by 1.
	AddOne(ctx context.Context, userID, itemID string) error
	// SetQuantity sets the line to exactly quantity; quantity <= 0 removes it.
	// Returns domain.ErrCartNotFound or domain.ErrItemNotInCart.
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	// Remove drops the line if present.
	Remove(ctx context.Context, userID, itemID string) error
	// Delete drops the whole cart if present.
	Delete(ctx context.Context, userID string) error
}
