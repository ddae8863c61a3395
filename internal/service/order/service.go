package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/validate"
)

const maxIdempotencyKeyLen = 255

// CheckoutInput is the order request. Declared amounts are optional; when sent
// they must agree with the server computation within domain.PriceTolerance.
type CheckoutInput struct {
	CustomerName    string           `json:"customerName" validate:"required"`
	CustomerPhone   string           `json:"customerPhone" validate:"required"`
	CustomerAddress string           `json:"customerAddress" validate:"required"`
	Items           []CheckoutItem   `json:"items" validate:"required,min=1,dive"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	Tax             *decimal.Decimal `json:"tax"`
	Total           *decimal.Decimal `json:"total"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required"`
}

// CheckoutItem references a catalog item. Name, price and image are accepted
// for compatibility but the snapshot always comes from the catalog.
type CheckoutItem struct {
	ID       string           `json:"id" validate:"required"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Image    string           `json:"image"`
	Quantity int              `json:"quantity" validate:"min=1,max=10000"`
}

type Service struct {
	repo    orderRepo
	carts   cartDeleter
	catalog catalogReader
	logger  logrus.FieldLogger
	metrics placementRecorder

	now         func() time.Time
	newID       func() string
	clearPolicy func() backoff.BackOff
}

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error)
	ClearsCart() bool
}

type cartDeleter interface {
	Delete(ctx context.Context, userID string) error
}

type catalogReader interface {
	Lookup(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
}

type placementRecorder interface {
	OrderPlaced(outcome string)
	CartClearFailed()
}

type noopRecorder struct{}

func (noopRecorder) OrderPlaced(string) {}
func (noopRecorder) CartClearFailed()   {}

func New(repo orderRepo, carts cartDeleter, catalog catalogReader, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:        repo,
		carts:       carts,
		catalog:     catalog,
		logger:      logger.WithField("service", "order"),
		metrics:     noopRecorder{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       validate.GenerateID,
		clearPolicy: defaultClearPolicy,
	}
}

// WithMetrics reports placements and cart clear failures to m.
func (s *Service) WithMetrics(m placementRecorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

func defaultClearPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// Place converts a checkout into a pending order and empties the caller's cart.
// A non-empty idempotencyKey makes repeated calls return the first order.
func (s *Service) Place(ctx context.Context, who domain.Identity, in CheckoutInput, idempotencyKey string) (*domain.Order, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	in = trimInput(in)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		return nil, domain.InvalidInput("idempotency key longer than %d characters", maxIdempotencyKeyLen)
	}

	log := s.logger.WithField("user_id", who.UserID)

	if idempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, who.UserID, idempotencyKey)
		switch {
		case err == nil:
			return s.replay(ctx, log, existing), nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	lines, err := s.price(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	totals := domain.ComputeTotals(lines)
	if err := totals.CheckLimit(); err != nil {
		return nil, err
	}
	if err := totals.CheckDeclared(in.Subtotal, in.Tax, in.Total); err != nil {
		log.WithError(err).Warn("declared totals rejected")
		return nil, err
	}

	now := s.now()
	o := &domain.Order{
		ID:              s.newID(),
		UserID:          who.UserID,
		UserEmail:       who.Email,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		Items:           lines,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentMethod:   in.PaymentMethod,
		Status:          domain.OrderStatusPending,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) && idempotencyKey != "" {
			// Lost a race with a concurrent request carrying the same key.
			existing, getErr := s.repo.GetByIdempotencyKey(ctx, who.UserID, idempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("load order for idempotency key: %w", getErr)
			}
			return s.replay(ctx, log, existing), nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	// A cart deleted inside the order transaction is already gone, and lines
	// added after that commit must survive.
	if !s.repo.ClearsCart() {
		s.clearCart(ctx, log, who.UserID)
	}
	s.metrics.OrderPlaced("created")
	log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"lines":    len(o.Items),
		"total":    o.Total.StringFixed(2),
	}).Info("order placed")
	return o, nil
}

func (s *Service) replay(ctx context.Context, log logrus.FieldLogger, o *domain.Order) *domain.Order {
	s.clearCart(ctx, log, o.UserID)
	s.metrics.OrderPlaced("replayed")
	log.WithField("order_id", o.ID).Info("order replayed for idempotency key")
	return o
}

// price snapshots every submitted line from the catalog. Client-sent names and
// prices are ignored.
func (s *Service) price(ctx context.Context, items []CheckoutItem) ([]domain.OrderLine, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	found, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", domain.ErrUpstream, err)
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		item, ok := found[it.ID]
		if !ok || !item.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, it.ID)
		}
		lines = append(lines, domain.OrderLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: it.Quantity,
		})
	}
	return lines, nil
}

// clearCart deletes the owner's cart after placement, detached from request
// cancellation. A failure is logged and never undoes the order.
func (s *Service) clearCart(ctx context.Context, log logrus.FieldLogger, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	op := func() error { return s.carts.Delete(ctx, userID) }
	notify := func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait).Warn("cart clear failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.clearPolicy(), ctx), notify); err != nil {
		s.metrics.CartClearFailed()
		log.WithError(err).Error("cart clear failed after order placement")
	}
}

// ListForUser returns the caller's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, who.UserID)
}

// ListAll returns every order, newest first. Admin only.
func (s *Service) ListAll(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !who.Admin {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

// Get returns one order to its owner or to an admin. Anyone else sees not found.
func (s *Service) Get(ctx context.Context, who domain.Identity, orderID string) (*domain.Order, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validate.CheckID(orderID); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != who.UserID && !who.Admin {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus sets any assignable status regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, who domain.Identity, orderID, status string) (*domain.Order, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !who.Admin {
		return nil, domain.ErrForbidden
	}
	if err := validate.CheckID(orderID); err != nil {
		return nil, err
	}
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.UpdateStatus(ctx, orderID, next, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
		"admin":    who.Email,
	}).Info("order status updated")
	return o, nil
}

func trimInput(in CheckoutInput) CheckoutInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	items := make([]CheckoutItem, len(in.Items))
	for i, it := range in.Items {
		it.ID = strings.TrimSpace(it.ID)
		items[i] = it
	}
	if in.Items != nil {
		in.Items = items
	}
	return in
}
