package pricing

import (
	"testing"

	"homegoods/internal/domain"
	"homegoods/internal/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int) domain.PricedLine {
	return domain.PricedLine{
		CartLine:  domain.CartLine{ProductID: price, Quantity: qty},
		UnitPrice: decimal.RequireFromString(price),
	}
}

func assertSnapshot(t *testing.T, got Snapshot, subtotal, tax, shipping, total string) {
	t.Helper()
	assert.Equal(t, subtotal, money.String(got.Subtotal), "subtotal")
	assert.Equal(t, tax, money.String(got.Tax), "tax")
	assert.Equal(t, shipping, money.String(got.Shipping), "shipping")
	assert.Equal(t, total, money.String(got.Total), "total")
}

func TestCompute_ConcreteScenario(t *testing.T) {
	calc := NewCalculator(DefaultRules())
	got := calc.Compute([]domain.PricedLine{line("10.00", 2), line("60.00", 1)})
	assertSnapshot(t, got, "80.00", "6.40", "0.00", "86.40")
}

func TestCompute_Empty(t *testing.T) {
	calc := NewCalculator(DefaultRules())
	assertSnapshot(t, calc.Compute(nil), "0.00", "0.00", "0.00", "0.00")
}

func TestCompute_FreeShippingBoundary(t *testing.T) {
	calc := NewCalculator(DefaultRules())
	assertSnapshot(t, calc.Compute([]domain.PricedLine{line("75.00", 1)}), "75.00", "6.00", "0.00", "81.00")
	assertSnapshot(t, calc.Compute([]domain.PricedLine{line("74.99", 1)}), "74.99", "6.00", "9.99", "90.98")
}

func TestCompute_RoundsSubtotalOnceAtEnd(t *testing.T) {
	calc := NewCalculator(DefaultRules())
	// Three lines of 6.665: per-line rounding would give 20.01, the sum is 19.995.
	lines := []domain.PricedLine{line("6.665", 1), line("6.665", 1), line("6.665", 1)}
	first := calc.Compute(lines)
	assertSnapshot(t, first, "20.00", "1.60", "9.99", "31.59")
	for i := 0; i < 50; i++ {
		again := calc.Compute(lines)
		assert.True(t, first.Total.Equal(again.Total))
	}
}

func TestCompute_CustomRules(t *testing.T) {
	calc := NewCalculator(Rules{
		TaxRate:               money.MustParse("0.2"),
		FreeShippingThreshold: money.MustParse("100"),
		FlatShippingFee:       money.MustParse("5"),
	})
	assertSnapshot(t, calc.Compute([]domain.PricedLine{line("12.345", 2)}), "24.69", "4.94", "5.00", "34.63")
}
