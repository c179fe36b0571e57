package cart

import (
	"context"

	"homegoods/internal/domain"
)

// MutateFunc edits the locked cart in place. Returning an error discards
// every change.
type MutateFunc func(cart *domain.Cart) error

type Repository interface {
	// Get returns the owner's cart, or an empty one when none was created yet.
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	// Mutate creates the cart if needed, locks it for the duration of fn and
	// persists the lines fn leaves behind.
	Mutate(ctx context.Context, ownerID string, fn MutateFunc) (*domain.Cart, error)
}
