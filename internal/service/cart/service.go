package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
)

// Service is the cart store. Every operation is keyed by the caller's user id
// and every mutator returns the resulting cart with current catalog fields.
type Service struct {
	repo    cartRepo
	catalog catalogReader
	logger  logrus.FieldLogger
}

type cartRepo interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddOne(ctx context.Context, userID, itemID string) error
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
	Delete(ctx context.Context, userID string) error
}

type catalogReader interface {
	GetActive(ctx context.Context, id string) (*domain.CatalogItem, error)
	Lookup(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
}

func New(repo cartRepo, catalog catalogReader, logger logrus.FieldLogger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger.WithField("service", "cart")}
}

// Get returns the caller's cart, empty when none exists.
func (s *Service) Get(ctx context.Context, userID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUnauthorized
	}
	return s.view(ctx, userID)
}

// Add puts one unit of itemID in the cart, creating the cart on first use.
func (s *Service) Add(ctx context.Context, userID, itemID string) (domain.CartView, error) {
	itemID, err := normalize(userID, itemID)
	if err != nil {
		return domain.CartView{}, err
	}
	if _, err := s.catalog.GetActive(ctx, itemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CartView{}, domain.ErrItemNotFound
		}
		return domain.CartView{}, upstream(err)
	}
	if err := s.repo.AddOne(ctx, userID, itemID); err != nil {
		return domain.CartView{}, fmt.Errorf("add item %s: %w", itemID, err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID}).Debug("item added")
	return s.view(ctx, userID)
}

// SetQuantity sets the quantity exactly; quantity <= 0 removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.CartView, error) {
	itemID, err := normalize(userID, itemID)
	if err != nil {
		return domain.CartView{}, err
	}
	if quantity > domain.MaxLineQuantity {
		return domain.CartView{}, domain.InvalidInput("quantity must be at most %d", domain.MaxLineQuantity)
	}
	if err := s.repo.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CartView{}, err
		}
		return domain.CartView{}, fmt.Errorf("set quantity of %s: %w", itemID, err)
	}
	return s.view(ctx, userID)
}

// Remove drops the line; removing an absent item leaves the cart unchanged.
func (s *Service) Remove(ctx context.Context, userID, itemID string) (domain.CartView, error) {
	itemID, err := normalize(userID, itemID)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.repo.Remove(ctx, userID, itemID); err != nil {
		return domain.CartView{}, fmt.Errorf("remove item %s: %w", itemID, err)
	}
	return s.view(ctx, userID)
}

// Clear deletes the cart. Clearing an absent cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return domain.CartView{}, fmt.Errorf("clear cart: %w", err)
	}
	return domain.EmptyCart(), nil
}

func (s *Service) view(ctx context.Context, userID string) (domain.CartView, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.EmptyCart(), nil
		}
		return domain.CartView{}, fmt.Errorf("load cart: %w", err)
	}

	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ItemID)
	}
	items, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return domain.CartView{}, upstream(err)
	}

	out := domain.EmptyCart()
	for _, l := range cart.Lines {
		item, ok := items[l.ItemID]
		if !ok || !item.Active {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "item_id": l.ItemID}).Warn("cart line references an unavailable catalog item")
			continue
		}
		out.Items = append(out.Items, domain.CartItem{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Image:       item.Image,
			Category:    item.Category,
			Quantity:    l.Quantity,
		})
	}
	return out, nil
}

func normalize(userID, itemID string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", domain.InvalidInput("itemId required")
	}
	return itemID, nil
}

func upstream(err error) error {
	return fmt.Errorf("%w: catalog: %v", domain.ErrUpstream, err)
}
