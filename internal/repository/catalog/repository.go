package catalog

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the read side of the catalog used by carts and checkout.
type Repository interface {
	// GetActive returns an item that exists and is active, or domain.ErrItemNotFound.
	GetActive(ctx context.Context, id string) (*domain.CatalogItem, error)
	// Lookup resolves ids regardless of active state. Unknown ids are absent from the map.
	Lookup(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
}
