// Package money holds the currency helpers every price calculation goes
// through. All amounts are decimal, never float64, so rounding is exact.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits stored for every amount.
const Places = 2

// Zero is 0.00.
var Zero = decimal.Zero

// Round2 rounds half-up to two decimal places. 19.995 becomes 20.00 and
// 0.125 becomes 0.13 on every call.
func Round2(d decimal.Decimal) decimal.Decimal {
	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts this package deals with.
	return d.Round(Places)
}

// Parse reads a decimal amount such as "9.99". Negative amounts are rejected.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", s)
	}
	return d, nil
}

// MustParse is Parse for constants.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// LineTotal is unit price times quantity, unrounded.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// String formats an amount with exactly two decimals.
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
