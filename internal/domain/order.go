package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// PaymentStatus tracks the (simulated) payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// forward lists the fulfilment sequence; CANCELLED sits outside it.
var forward = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// ParseOrderStatus validates a status name.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if st == OrderStatusCancelled || st.rank() >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, s)
}

func (s OrderStatus) rank() int {
	for i, st := range forward {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable reports whether the order may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CanTransition allows exactly one step forward in the fulfilment sequence,
// or CANCELLED from PENDING/CONFIRMED. Skips, reversals and same-state
// updates are rejected.
func CanTransition(from, to OrderStatus) error {
	if to == OrderStatusCancelled {
		if from.Cancellable() {
			return nil
		}
		return fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidTransition, from)
	}
	fr, tr := from.rank(), to.rank()
	if tr < 0 {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, to)
	}
	if fr < 0 || tr != fr+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ShippingAddress is stored as an opaque snapshot on the order.
type ShippingAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// DefaultCountry is used when an address leaves the country blank.
const DefaultCountry = "Turkmenistan"

// Normalize trims every field, fills in the default country and checks that
// the required fields are present.
func (a ShippingAddress) Normalize() (ShippingAddress, error) {
	out := ShippingAddress{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	for _, f := range []struct{ name, value string }{
		{"firstName", out.FirstName},
		{"lastName", out.LastName},
		{"street", out.Street},
		{"city", out.City},
		{"postalCode", out.PostalCode},
		{"phone", out.Phone},
	} {
		if f.value == "" {
			return ShippingAddress{}, fmt.Errorf("%w: shippingAddress.%s required", ErrInvalidArgument, f.name)
		}
	}
	return out, nil
}

// OrderLine is a line captured at checkout; it never changes afterwards.
type OrderLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

// Order is materialized from a cart. Only Status changes after creation.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	OwnerID         string          `json:"ownerId"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Total           decimal.Decimal `json:"total"`
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderFilter drives the admin order listing.
type OrderFilter struct {
	Status OrderStatus
	Page   int
	Limit  int
}

// Offset is the number of rows skipped for Page.
func (f OrderFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
