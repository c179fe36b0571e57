package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"homegoods/internal/domain"
	"homegoods/internal/logging"
	"homegoods/internal/pricing"
	orderrepo "homegoods/internal/repository/order"
	"homegoods/internal/retry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// numberAttempts bounds how often a colliding order number is regenerated.
	numberAttempts = 5

	DefaultPaymentMethod = "card"
	DefaultPageLimit     = 20
	MaxPageLimit         = 100
)

// Catalog resolves the products referenced by a cart.
type Catalog interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type Service struct {
	repo    orderrepo.Repository
	catalog Catalog
	calc    *pricing.Calculator
	prefix  string
	logger  *zap.Logger
	now     func() time.Time
}

func New(repo orderrepo.Repository, catalog Catalog, calc *pricing.Calculator, numberPrefix string, logger *zap.Logger) *Service {
	if numberPrefix == "" {
		numberPrefix = "HH"
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		calc:    calc,
		prefix:  strings.ToUpper(numberPrefix),
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// CheckoutInput is what the owner supplies at checkout.
type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

// Materialize turns the caller's cart into a confirmed, paid order and
// empties the cart in the same transaction.
func (s *Service) Materialize(ctx context.Context, caller domain.Identity, in CheckoutInput) (*domain.Order, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: no authenticated caller", domain.ErrForbidden)
	}
	address, err := in.ShippingAddress.Normalize()
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = DefaultPaymentMethod
	}
	notes := strings.TrimSpace(in.Notes)

	var out *domain.Order
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		number := s.newOrderNumber()
		err = retry.OnConflict(ctx, s.logger, "materialize order", func(ctx context.Context) error {
			o, err := s.repo.Materialize(ctx, caller.UserID, func(ctx context.Context, cart *domain.Cart) (*domain.Order, error) {
				return s.build(ctx, cart, number, address, method, notes)
			})
			if err != nil {
				return err
			}
			out = o
			return nil
		})
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Warn("order number collision", zap.String("order_number", number), zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%w: could not allocate a unique order number", domain.ErrConflict)
}

// build snapshots current names and prices so later catalog changes never
// touch the order.
func (s *Service) build(ctx context.Context, cart *domain.Cart, number string, address domain.ShippingAddress, method, notes string) (*domain.Order, error) {
	products, err := s.catalog.ListByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	priced, err := domain.PriceLines(cart.Lines, products)
	if err != nil {
		return nil, err
	}
	totals := s.calc.Compute(priced)

	items := make([]domain.OrderLine, 0, len(priced))
	for _, p := range priced {
		items = append(items, domain.OrderLine{
			ProductID: p.ProductID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  p.Quantity,
			Variant:   p.Variant,
		})
	}
	return &domain.Order{
		OrderNumber:     number,
		OwnerID:         cart.OwnerID,
		Status:          domain.OrderStatusConfirmed,
		PaymentStatus:   domain.PaymentStatusPaid,
		PaymentMethod:   method,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.Shipping,
		Total:           totals.Total,
		Items:           items,
		ShippingAddress: address,
		Notes:           notes,
	}, nil
}

// newOrderNumber renders PREFIX-<base36 unix millis>-<4 hex>. The millisecond
// part keeps numbers sortable by creation time.
func (s *Service) newOrderNumber() string {
	id := uuid.New()
	ms := strconv.FormatInt(s.now().UnixMilli(), 36)
	return strings.ToUpper(fmt.Sprintf("%s-%s-%x", s.prefix, ms, id[:2]))
}

// Cancel moves the caller's own order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: no authenticated caller", domain.ErrForbidden)
	}
	var out *domain.Order
	err := retry.OnConflict(ctx, s.logger, "cancel order", func(ctx context.Context) error {
		o, err := s.repo.UpdateStatus(ctx, orderID, func(current *domain.Order) (domain.OrderStatus, error) {
			if current.OwnerID != caller.UserID {
				return "", fmt.Errorf("%w: order %s belongs to another user", domain.ErrForbidden, orderID)
			}
			if err := domain.CanTransition(current.Status, domain.OrderStatusCancelled); err != nil {
				return "", err
			}
			return domain.OrderStatusCancelled, nil
		})
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled", zap.String("order_id", orderID), zap.String("owner_id", caller.UserID))
	return out, nil
}

// Get returns one of the caller's orders. Orders of other users are reported
// as missing.
func (s *Service) Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.UserID == "" || o.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return o, nil
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: no authenticated caller", domain.ErrForbidden)
	}
	orders, err := s.repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Page is one page of the back-office order listing.
type Page struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Pages  int            `json:"totalPages"`
}

// ListAll is the admin listing across all owners.
func (s *Service) ListAll(ctx context.Context, caller domain.Identity, filter domain.OrderFilter) (*Page, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if filter.Status != "" {
		st, err := domain.ParseOrderStatus(string(filter.Status))
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{
		Orders: orders,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
		Pages:  (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// UpdateStatus applies an admin status change. Only single forward steps and
// cancellation from PENDING or CONFIRMED are accepted.
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Identity, orderID, status string) (*domain.Order, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	next, err := domain.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}

	var out *domain.Order
	err = retry.OnConflict(ctx, s.logger, "update order status", func(ctx context.Context) error {
		o, err := s.repo.UpdateStatus(ctx, orderID, func(current *domain.Order) (domain.OrderStatus, error) {
			return next, domain.CanTransition(current.Status, next)
		})
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", zap.String("order_id", orderID), zap.String("status", string(next)))
	return out, nil
}
