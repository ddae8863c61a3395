package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds the quantity of a single cart or order line.
const MaxLineQuantity = 10000

// Cart is the stored form of a user's cart: item references and quantities only.
type Cart struct {
	UserID    string     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Lines     []CartLine `json:"-"`
}

type CartLine struct {
	ItemID   string    `json:"itemId"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// CartItem is a cart line denormalized with the current catalog fields.
type CartItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
}

// CartView is what every cart operation returns.
type CartView struct {
	Items []CartItem `json:"items"`
}

// EmptyCart is the view of a user without a cart row.
func EmptyCart() CartView {
	return CartView{Items: []CartItem{}}
}
