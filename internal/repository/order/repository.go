package order

import (
	"context"

	"homegoods/internal/domain"
)

// BuildFunc turns the locked, non-empty cart into the order to persist.
type BuildFunc func(ctx context.Context, cart *domain.Cart) (*domain.Order, error)

// DecideFunc inspects the locked order and returns the status to store.
type DecideFunc func(current *domain.Order) (domain.OrderStatus, error)

type Repository interface {
	// Materialize locks the owner's cart, builds the order from it, stores
	// the order and empties the cart in one transaction.
	Materialize(ctx context.Context, ownerID string, build BuildFunc) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, decide DecideFunc) (*domain.Order, error)
}
