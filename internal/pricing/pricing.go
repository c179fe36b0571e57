// Package pricing derives cart totals from priced lines and a small rule set.
package pricing

import (
	"homegoods/internal/domain"
	"homegoods/internal/money"

	"github.com/shopspring/decimal"
)

// Rules holds the flat-rate tax and shipping settings.
type Rules struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultRules is 8% tax, free shipping from 75.00, otherwise 9.99.
func DefaultRules() Rules {
	return Rules{
		TaxRate:               money.MustParse("0.08"),
		FreeShippingThreshold: money.MustParse("75.00"),
		FlatShippingFee:       money.MustParse("9.99"),
	}
}

// Snapshot is derived on every read and never stored on its own.
type Snapshot struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator applies Rules to priced lines.
type Calculator struct {
	rules Rules
}

func NewCalculator(rules Rules) *Calculator {
	return &Calculator{rules: rules}
}

// Rules returns the configured rules.
func (c *Calculator) Rules() Rules {
	return c.rules
}

// Compute sums unit price times quantity over all lines and rounds once at
// the end. An empty cart costs nothing, shipping included.
func (c *Calculator) Compute(lines []domain.PricedLine) Snapshot {
	if len(lines) == 0 {
		return Snapshot{Subtotal: money.Zero, Tax: money.Zero, Shipping: money.Zero, Total: money.Zero}
	}

	raw := decimal.Zero
	for _, l := range lines {
		raw = raw.Add(money.LineTotal(l.UnitPrice, l.Quantity))
	}
	subtotal := money.Round2(raw)
	tax := money.Round2(subtotal.Mul(c.rules.TaxRate))

	shipping := money.Round2(c.rules.FlatShippingFee)
	if subtotal.GreaterThanOrEqual(c.rules.FreeShippingThreshold) {
		shipping = money.Zero
	}

	return Snapshot{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    money.Round2(subtotal.Add(tax).Add(shipping)),
	}
}
