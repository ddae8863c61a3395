package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
)

const (
	itemA = "11111111-1111-1111-1111-111111111111"
	itemB = "22222222-2222-2222-2222-222222222222"
	itemC = "33333333-3333-3333-3333-333333333333"
)

func newCatalog() *catalogrepo.Memory {
	return catalogrepo.NewMemory(
		domain.CatalogItem{ID: itemA, Name: "Margherita", Description: "tomato, basil", Price: decimal.RequireFromString("10.00"), Image: "a.jpg", Category: "pizza", Active: true},
		domain.CatalogItem{ID: itemB, Name: "Lemonade", Price: decimal.RequireFromString("3.50"), Image: "b.jpg", Category: "drinks", Active: true},
		domain.CatalogItem{ID: itemC, Name: "Seasonal", Price: decimal.NewFromInt(4), Active: true},
	)
}

func newService() (*Service, *catalogrepo.Memory) {
	catalog := newCatalog()
	return New(cartrepo.NewMemory(), catalog, logging.Discard()), catalog
}

type stubCatalog struct {
	getErr    error
	lookupErr error
}

func (s *stubCatalog) GetActive(_ context.Context, id string) (*domain.CatalogItem, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.CatalogItem{ID: id, Active: true}, nil
}

func (s *stubCatalog) Lookup(_ context.Context, _ []string) (map[string]domain.CatalogItem, error) {
	return nil, s.lookupErr
}

func quantities(v domain.CartView) map[string]int {
	out := map[string]int{}
	for _, it := range v.Items {
		out[it.ID] = it.Quantity
	}
	return out
}

func TestServiceGetWithoutCart(t *testing.T) {
	svc, _ := newService()
	got, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %+v", got.Items)
	}
}

func TestServiceRequiresUser(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Add(context.Background(), "", itemA); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Clear(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceAddIncrementsAndDenormalizes(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("first add: %v", err)
	}
	got, err := svc.Add(ctx, "u1", itemA)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	want := []domain.CartItem{{
		ID:          itemA,
		Name:        "Margherita",
		Description: "tomato, basil",
		Price:       decimal.RequireFromString("10.00"),
		Image:       "a.jpg",
		Category:    "pizza",
		Quantity:    2,
	}}
	if diff := cmp.Diff(want, got.Items); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceAddValidation(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Add(context.Background(), "u1", "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestServiceAddUnknownOrInactiveItem(t *testing.T) {
	svc, catalog := newService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", "missing"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}

	catalog.Put(domain.CatalogItem{ID: "retired", Name: "Old", Price: decimal.NewFromInt(1)})
	if _, err := svc.Add(ctx, "u1", "retired"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found for inactive item, got %v", err)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("cart should stay empty, got %+v", got.Items)
	}
}

func TestServiceAddCatalogFailureIsUpstream(t *testing.T) {
	svc := New(cartrepo.NewMemory(), &stubCatalog{getErr: errors.New("connection refused")}, logging.Discard())
	_, err := svc.Add(context.Background(), "u1", itemA)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestServiceViewCatalogFailureIsUpstream(t *testing.T) {
	repo := cartrepo.NewMemory()
	if err := repo.AddOne(context.Background(), "u1", itemA); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	svc := New(repo, &stubCatalog{lookupErr: errors.New("timeout")}, logging.Discard())
	if _, err := svc.Get(context.Background(), "u1"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestServiceConcurrentAddsKeepEveryIncrement(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Add(ctx, "u1", itemA); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add: %v", err)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q := quantities(got)[itemA]; q != n {
		t.Fatalf("expected quantity %d, got %d", n, q)
	}
}

func TestServiceSetQuantity(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.SetQuantity(ctx, "u1", itemA, 3); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected cart not found, got %v", err)
	}

	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.SetQuantity(ctx, "u1", itemB, 3); !errors.Is(err, domain.ErrItemNotInCart) {
		t.Fatalf("expected item not in cart, got %v", err)
	}

	got, err := svc.SetQuantity(ctx, "u1", itemA, 5)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if q := quantities(got)[itemA]; q != 5 {
		t.Fatalf("expected quantity 5, got %d", q)
	}
}

func TestServiceSetQuantityLimit(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.SetQuantity(ctx, "u1", itemA, domain.MaxLineQuantity+1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q := quantities(got)[itemA]; q != 1 {
		t.Fatalf("rejected update changed quantity to %d", q)
	}

	got, err = svc.SetQuantity(ctx, "u1", itemA, domain.MaxLineQuantity)
	if err != nil {
		t.Fatalf("set to limit: %v", err)
	}
	if q := quantities(got)[itemA]; q != domain.MaxLineQuantity {
		t.Fatalf("expected quantity %d, got %d", domain.MaxLineQuantity, q)
	}
}

func TestServiceSetQuantityNonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -2} {
		svc, _ := newService()
		ctx := context.Background()
		if _, err := svc.Add(ctx, "u1", itemA); err != nil {
			t.Fatalf("add: %v", err)
		}
		if _, err := svc.Add(ctx, "u1", itemB); err != nil {
			t.Fatalf("add: %v", err)
		}

		got, err := svc.SetQuantity(ctx, "u1", itemA, qty)
		if err != nil {
			t.Fatalf("qty %d: %v", qty, err)
		}
		if diff := cmp.Diff(map[string]int{itemB: 1}, quantities(got)); diff != "" {
			t.Fatalf("qty %d: cart mismatch (-want +got):\n%s", qty, diff)
		}
	}
}

func TestServiceRemoveIsIdempotent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Remove(ctx, "u1", itemA); err != nil {
		t.Fatalf("remove without cart: %v", err)
	}
	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "u1", itemB); err != nil {
		t.Fatalf("add: %v", err)
	}

	first, err := svc.Remove(ctx, "u1", itemA)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := svc.Remove(ctx, "u1", itemA)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second remove changed the cart (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{itemB: 1}, quantities(second)); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceClear(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "u2", itemB); err != nil {
		t.Fatalf("add: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.Clear(ctx, "u1")
		if err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
		if len(got.Items) != 0 {
			t.Fatalf("clear #%d returned items %+v", i+1, got.Items)
		}
	}

	other, err := svc.Get(ctx, "u2")
	if err != nil {
		t.Fatalf("get other: %v", err)
	}
	if q := quantities(other)[itemB]; q != 1 {
		t.Fatalf("other user's cart touched, quantity %d", q)
	}
}

func TestServiceViewSkipsUnavailableItems(t *testing.T) {
	svc, catalog := newService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", itemA); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "u1", itemB); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "u1", itemC); err != nil {
		t.Fatalf("add: %v", err)
	}
	catalog.Delete(itemB)
	catalog.Put(domain.CatalogItem{ID: itemC, Name: "Seasonal", Price: decimal.NewFromInt(4)})

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(map[string]int{itemA: 1}, quantities(got)); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
}
