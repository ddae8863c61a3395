package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"storefront/internal/dbtest"
	"storefront/internal/domain"
)

const (
	itemA = "11111111-1111-1111-1111-111111111111"
	itemB = "22222222-2222-2222-2222-222222222222"
)

// implementations runs every case against both stores.
func implementations(t *testing.T) map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"memory":   func(*testing.T) Repository { return NewMemory() },
		"postgres": func(t *testing.T) Repository { return NewPostgres(dbtest.Pool(t)) },
	}
}

func lines(t *testing.T, repo Repository, userID string) map[string]int {
	t.Helper()
	cart, err := repo.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	out := map[string]int{}
	for _, l := range cart.Lines {
		out[l.ItemID] = l.Quantity
	}
	return out
}

func TestRepository_GetMissingCart(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			_, err := repo.Get(context.Background(), "nobody")
			if !errors.Is(err, domain.ErrCartNotFound) {
				t.Fatalf("expected cart not found, got %v", err)
			}
		})
	}
}

func TestRepository_AddOneCreatesAndIncrements(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			for _, id := range []string{itemA, itemA, itemB} {
				if err := repo.AddOne(ctx, "u1", id); err != nil {
					t.Fatalf("AddOne(%s): %v", id, err)
				}
			}
			if diff := cmp.Diff(map[string]int{itemA: 2, itemB: 1}, lines(t, repo, "u1")); diff != "" {
				t.Fatalf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepository_ConcurrentAddOne(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			const n = 20

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repo.AddOne(ctx, "u1", itemA)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatalf("AddOne: %v", err)
				}
			}
			if got := lines(t, repo, "u1")[itemA]; got != n {
				t.Fatalf("expected quantity %d, got %d", n, got)
			}
		})
	}
}

func TestRepository_SetQuantity(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			if err := repo.SetQuantity(ctx, "u1", itemA, 2); !errors.Is(err, domain.ErrCartNotFound) {
				t.Fatalf("expected cart not found, got %v", err)
			}
			if err := repo.AddOne(ctx, "u1", itemA); err != nil {
				t.Fatalf("AddOne: %v", err)
			}
			if err := repo.AddOne(ctx, "u1", itemB); err != nil {
				t.Fatalf("AddOne: %v", err)
			}
			if err := repo.SetQuantity(ctx, "u1", "33333333-3333-3333-3333-333333333333", 2); !errors.Is(err, domain.ErrItemNotInCart) {
				t.Fatalf("expected item not in cart, got %v", err)
			}
			if err := repo.SetQuantity(ctx, "u1", itemA, 7); err != nil {
				t.Fatalf("SetQuantity: %v", err)
			}
			if err := repo.SetQuantity(ctx, "u1", itemB, 0); err != nil {
				t.Fatalf("SetQuantity to zero: %v", err)
			}
			if diff := cmp.Diff(map[string]int{itemA: 7}, lines(t, repo, "u1")); diff != "" {
				t.Fatalf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepository_RemoveAndDelete(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			if err := repo.Remove(ctx, "u1", itemA); err != nil {
				t.Fatalf("Remove without cart: %v", err)
			}
			if err := repo.AddOne(ctx, "u1", itemA); err != nil {
				t.Fatalf("AddOne: %v", err)
			}
			if err := repo.AddOne(ctx, "u1", itemB); err != nil {
				t.Fatalf("AddOne: %v", err)
			}
			for i := 0; i < 2; i++ {
				if err := repo.Remove(ctx, "u1", itemA); err != nil {
					t.Fatalf("Remove #%d: %v", i+1, err)
				}
			}
			if diff := cmp.Diff(map[string]int{itemB: 1}, lines(t, repo, "u1")); diff != "" {
				t.Fatalf("lines mismatch (-want +got):\n%s", diff)
			}

			for i := 0; i < 2; i++ {
				if err := repo.Delete(ctx, "u1"); err != nil {
					t.Fatalf("Delete #%d: %v", i+1, err)
				}
			}
			if _, err := repo.Get(ctx, "u1"); !errors.Is(err, domain.ErrCartNotFound) {
				t.Fatalf("expected cart gone, got %v", err)
			}
		})
	}
}

func TestRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	if err := repo.AddOne(ctx, "u1", itemA); err != nil {
		t.Fatalf("AddOne: %v", err)
	}
	cart, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cart.Lines[0].Quantity = 99

	again, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []domain.CartLine{{ItemID: itemA, Quantity: 1}}
	if diff := cmp.Diff(want, again.Lines, cmpopts.IgnoreFields(domain.CartLine{}, "AddedAt")); diff != "" {
		t.Fatalf("stored cart was mutated (-want +got):\n%s", diff)
	}
}

func TestMemory_ReleasesUserLocks(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	users := []string{"u1", "u2", "u3", "u4"}
	const n = 25

	var wg sync.WaitGroup
	for _, u := range users {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				if err := repo.AddOne(ctx, u, itemA); err != nil {
					t.Errorf("AddOne: %v", err)
				}
			}(u)
		}
	}
	wg.Wait()

	for _, u := range users {
		if got := lines(t, repo, u)[itemA]; got != n {
			t.Fatalf("%s: expected quantity %d, got %d", u, n, got)
		}
	}
	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.locks) != 0 {
		t.Fatalf("expected no idle user locks, got %d", len(repo.locks))
	}
}
