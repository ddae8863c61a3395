package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching what storefront clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	// TaxRate is the fixed sales tax applied to every order subtotal.
	TaxRate = decimal.RequireFromString("0.13")

	// PriceTolerance is the largest accepted gap between client and server totals.
	PriceTolerance = decimal.New(1, -2)

	// MaxOrderAmount is the largest subtotal, tax or total an order can store.
	MaxOrderAmount = decimal.RequireFromString("9999999999.99")
)

// Totals holds the order amounts, all rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices a list of line snapshots.
func ComputeTotals(lines []OrderLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// CheckLimit rejects orders whose amounts exceed MaxOrderAmount.
func (t Totals) CheckLimit() error {
	if t.Total.GreaterThan(MaxOrderAmount) {
		return InvalidInput("order total %s exceeds %s", t.Total.StringFixed(2), MaxOrderAmount.StringFixed(2))
	}
	return nil
}

// CheckDeclared compares client-declared amounts against t. Nil amounts are not checked.
func (t Totals) CheckDeclared(subtotal, tax, total *decimal.Decimal) error {
	checks := []struct {
		name     string
		declared *decimal.Decimal
		actual   decimal.Decimal
	}{
		{"subtotal", subtotal, t.Subtotal},
		{"tax", tax, t.Tax},
		{"total", total, t.Total},
	}
	for _, c := range checks {
		if c.declared == nil {
			continue
		}
		if c.declared.Sub(c.actual).Abs().GreaterThan(PriceTolerance) {
			return InvalidInput("%s %s does not match computed %s", c.name, c.declared.StringFixed(2), c.actual.StringFixed(2))
		}
	}
	return nil
}
