package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
)

// itemNamespace derives stable ids from item names so that the memory store
// and a seeded database agree on them.
var itemNamespace = uuid.MustParse("6f1c3f3e-5d1a-4b7e-9a43-3b8f2f1d9c10")

type menuSeed struct {
	Name        string
	Description string
	Price       string
	Image       string
	Category    string
}

var menu = []menuSeed{
	{"Italian IceCream", "Eat it now", "12.99", "https://images.pexels.com/photos/1352278/pexels-photo-1352278.jpeg", "Desserts"},
	{"Chilaquiles", "Tortilla chips simmered in a red or green salsa", "16.99", "https://images.pexels.com/photos/2456435/pexels-photo-2456435.jpeg", "Snacks"},
	{"Tamales", "Steamed masa filled with meats or vegetables", "8.99", "https://images.pexels.com/photos/5737241/pexels-photo-5737241.jpeg", "Snacks"},
	{"Burrito", "A large flour tortilla filled with beans, rice, and meat", "14.99", "https://images.pexels.com/photos/461198/pexels-photo-461198.jpeg", "Snacks"},
	{"Nachos", "Crispy tortilla chips loaded with cheese and toppings", "11.99", "https://images.pexels.com/photos/1108117/pexels-photo-1108117.jpeg", "Appetizers"},
	{"Churros", "Fried dough pastries rolled in cinnamon sugar, served with chocolate sauce", "7.99", "https://images.pexels.com/photos/4110003/pexels-photo-4110003.jpeg", "Desserts"},
	{"Pozole Rojo", "Traditional soup with hominy, pork, and red chiles", "18.99", "https://images.pexels.com/photos/5737385/pexels-photo-5737385.jpeg", "Soups"},
	{"Mole Poblano", "Chicken simmered in a rich mole sauce, served with rice", "22.99", "https://images.pexels.com/photos/6538884/pexels-photo-6538884.jpeg", "Main Course"},
}

// CatalogItems returns the development menu as active catalog items.
func CatalogItems() []domain.CatalogItem {
	now := time.Now().UTC()
	items := make([]domain.CatalogItem, 0, len(menu))
	for _, m := range menu {
		items = append(items, domain.CatalogItem{
			ID:          uuid.NewSHA1(itemNamespace, []byte(m.Name)).String(),
			Name:        m.Name,
			Description: m.Description,
			Price:       decimal.RequireFromString(m.Price),
			Image:       m.Image,
			Category:    m.Category,
			Active:      true,
			CreatedAt:   now,
		})
	}
	return items
}

// Apply inserts the development menu. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) error {
	for _, item := range CatalogItems() {
		if err := upsertItem(ctx, pool, item); err != nil {
			return fmt.Errorf("upsert item %s: %w", item.Name, err)
		}
		log.WithFields(logrus.Fields{"item_id": item.ID, "name": item.Name}).Debug("seeded")
	}
	return nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, item domain.CatalogItem) error {
	const q = `
INSERT INTO catalog_items (id, name, description, price, image, category, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description,
    price = EXCLUDED.price,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    is_active = TRUE
`
	_, err := pool.Exec(ctx, q, item.ID, item.Name, item.Description, item.Price.StringFixed(2), item.Image, item.Category)
	return err
}
