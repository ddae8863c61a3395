package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable entity owned by the catalog. The core only reads it.
type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Active      bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}
