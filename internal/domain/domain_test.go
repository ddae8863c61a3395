package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name                 string
		lines                []OrderLine
		subtotal, tax, total string
	}{
		{name: "single line", lines: []OrderLine{{Price: d("10.00"), Quantity: 5}}, subtotal: "50.00", tax: "6.50", total: "56.50"},
		{name: "tax rounds half up", lines: []OrderLine{{Price: d("0.50"), Quantity: 1}}, subtotal: "0.50", tax: "0.07", total: "0.57"},
		{name: "several lines", lines: []OrderLine{{Price: d("12.99"), Quantity: 2}, {Price: d("7.99"), Quantity: 3}}, subtotal: "49.95", tax: "6.49", total: "56.44"},
		{name: "empty", subtotal: "0.00", tax: "0.00", total: "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines)
			if got.Subtotal.StringFixed(2) != tt.subtotal || got.Tax.StringFixed(2) != tt.tax || got.Total.StringFixed(2) != tt.total {
				t.Fatalf("got %s/%s/%s, want %s/%s/%s", got.Subtotal, got.Tax, got.Total, tt.subtotal, tt.tax, tt.total)
			}
			if !got.Total.Equal(got.Subtotal.Add(got.Tax)) {
				t.Fatalf("total is not subtotal + tax")
			}
		})
	}
}

func TestCheckDeclared(t *testing.T) {
	totals := Totals{Subtotal: d("50.00"), Tax: d("6.50"), Total: d("56.50")}
	p := func(s string) *decimal.Decimal { v := d(s); return &v }

	if err := totals.CheckDeclared(nil, nil, nil); err != nil {
		t.Fatalf("nothing declared: %v", err)
	}
	if err := totals.CheckDeclared(p("50.01"), p("6.49"), p("56.5")); err != nil {
		t.Fatalf("within tolerance: %v", err)
	}
	if err := totals.CheckDeclared(p("50"), p("6.50"), p("56.52")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := totals.CheckDeclared(p("5"), nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCheckLimit(t *testing.T) {
	if err := (Totals{Total: MaxOrderAmount}).CheckLimit(); err != nil {
		t.Fatalf("limit itself: %v", err)
	}
	if err := (Totals{Total: d("10000000000.00")}).CheckLimit(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "processing", "completed", "delivered", " Delivered "} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "cancelled", "shipped"} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", raw, err)
		}
	}
}

func TestNotFoundFamily(t *testing.T) {
	for _, err := range []error{ErrCartNotFound, ErrItemNotInCart, ErrItemNotFound, ErrOrderNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%v does not match ErrNotFound", err)
		}
	}
	if errors.Is(ErrCartNotFound, ErrItemNotInCart) {
		t.Fatalf("specific not-found errors must stay distinguishable")
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("empty context carries an identity")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Admin: true})
	got, ok := IdentityFrom(ctx)
	if !ok || got.UserID != "u1" || !got.Admin {
		t.Fatalf("identity not round-tripped: %+v", got)
	}
}
