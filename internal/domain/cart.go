package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (product, variant) entry in a cart. Variant "" means no variant.
type CartLine struct {
	ProductID string    `json:"productId"`
	Variant   string    `json:"variant,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Key identifies the line for merge purposes.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Variant: l.Variant}
}

// LineKey is the uniqueness key of a cart line.
type LineKey struct {
	ProductID string
	Variant   string
}

// NewLineKey trims its inputs so " blue" and "blue" address the same line.
func NewLineKey(productID, variant string) LineKey {
	return LineKey{ProductID: strings.TrimSpace(productID), Variant: strings.TrimSpace(variant)}
}

// Cart is the per-owner aggregate. Lines keep insertion order for display.
type Cart struct {
	ID      string     `json:"id"`
	OwnerID string     `json:"ownerId"`
	Lines   []CartLine `json:"items"`
}

// MaxLineQuantity bounds a single line so it always fits cart_items.quantity.
const MaxLineQuantity = math.MaxInt32

// Add merges quantity into an existing line with the same key or appends a
// new line at the end.
func (c *Cart) Add(key LineKey, quantity int, now time.Time) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidArgument, MaxLineQuantity)
	}
	if key.ProductID == "" {
		return fmt.Errorf("%w: productId required", ErrInvalidArgument)
	}
	if i := c.index(key); i >= 0 {
		if c.Lines[i].Quantity > MaxLineQuantity-quantity {
			return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidArgument, MaxLineQuantity)
		}
		c.Lines[i].Quantity += quantity
		return nil
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: key.ProductID,
		Variant:   key.Variant,
		Quantity:  quantity,
		AddedAt:   now,
	})
	return nil
}

// SetQuantity sets a line's quantity exactly. A quantity of zero or less
// removes the line; otherwise the line must exist.
func (c *Cart) SetQuantity(key LineKey, quantity int) error {
	if quantity <= 0 {
		c.Remove(key)
		return nil
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidArgument, MaxLineQuantity)
	}
	i := c.index(key)
	if i < 0 {
		return fmt.Errorf("%w: no cart line for product %s", ErrNotFound, key.ProductID)
	}
	c.Lines[i].Quantity = quantity
	return nil
}

// Remove drops the line if present. Absent lines are not an error.
func (c *Cart) Remove(key LineKey) {
	i := c.index(key)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Items returns a copy of the lines so callers cannot mutate the aggregate.
func (c *Cart) Items() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}

func (c *Cart) index(key LineKey) int {
	for i, l := range c.Lines {
		if l.ProductID == key.ProductID && l.Variant == key.Variant {
			return i
		}
	}
	return -1
}

// PricedLine is a cart line with the product's current name and unit price
// resolved, ready for the pricing calculator or an order snapshot.
type PricedLine struct {
	CartLine
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// PriceLines resolves every line against products keyed by id. A line whose
// product is missing fails the whole call with ErrNotFound.
func PriceLines(lines []CartLine, products map[string]Product) ([]PricedLine, error) {
	out := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, l.ProductID)
		}
		out = append(out, PricedLine{CartLine: l, Name: p.Name, UnitPrice: p.Price})
	}
	return out, nil
}

// ProductIDs lists the distinct product ids referenced by the cart.
func (c *Cart) ProductIDs() []string {
	seen := make(map[string]bool, len(c.Lines))
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}
