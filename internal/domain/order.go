package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusDelivered  OrderStatus = "delivered"

	// OrderStatusCancelled is part of the stored vocabulary but no operation assigns it.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// assignableStatuses may be set by an admin from any current status.
var assignableStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusCompleted:  true,
	OrderStatusDelivered:  true,
}

// ParseStatus validates a status requested by an admin.
func ParseStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return "", InvalidInput("status required")
	}
	if !assignableStatuses[s] {
		return "", InvalidInput("status %q cannot be assigned", raw)
	}
	return s, nil
}

// OrderLine is an immutable snapshot of a catalog item taken at checkout.
type OrderLine struct {
	ItemID   string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID              string
	UserID          string
	UserEmail       string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []OrderLine
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   string
	Status          OrderStatus
	IdempotencyKey  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
