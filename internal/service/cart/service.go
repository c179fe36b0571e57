package cart

import (
	"context"
	"fmt"
	"time"

	"homegoods/internal/domain"
	"homegoods/internal/logging"
	"homegoods/internal/money"
	"homegoods/internal/pricing"
	cartrepo "homegoods/internal/repository/cart"
	"homegoods/internal/retry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog resolves product references.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// PrimaryImages returns the primary image URL per product id.
type PrimaryImages interface {
	PrimaryURLs(ctx context.Context, productIDs []string) (map[string]string, error)
}

type Service struct {
	repo    cartrepo.Repository
	catalog Catalog
	images  PrimaryImages
	calc    *pricing.Calculator
	logger  *zap.Logger
	now     func() time.Time
}

// New wires the cart service. images may be nil, in which case cart views
// carry no image URLs.
func New(repo cartrepo.Repository, catalog Catalog, images PrimaryImages, calc *pricing.Calculator, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		images:  images,
		calc:    calc,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// Line is a priced cart line as shown to the owner.
type Line struct {
	domain.PricedLine
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// View is the cart read model: current prices and totals, computed on read.
type View struct {
	ID        string           `json:"id,omitempty"`
	Items     []Line           `json:"items"`
	ItemCount int              `json:"itemCount"`
	Totals    pricing.Snapshot `json:"totals"`
}

func owner(caller domain.Identity) (string, error) {
	if caller.UserID == "" {
		return "", fmt.Errorf("%w: no authenticated caller", domain.ErrForbidden)
	}
	return caller.UserID, nil
}

// AddItem merges quantity into the caller's line for (productID, variant).
func (s *Service) AddItem(ctx context.Context, caller domain.Identity, productID, variant string, quantity int) ([]domain.CartLine, error) {
	ownerID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	key := domain.NewLineKey(productID, variant)
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidArgument)
	}
	if quantity > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be at most %d", domain.ErrInvalidArgument, domain.MaxLineQuantity)
	}
	if key.ProductID == "" {
		return nil, fmt.Errorf("%w: productId required", domain.ErrInvalidArgument)
	}
	if _, err := s.catalog.GetByID(ctx, key.ProductID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, "cart add item", func(c *domain.Cart) error {
		return c.Add(key, quantity, s.now())
	})
}

// UpdateQuantity sets the line's quantity exactly; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, caller domain.Identity, productID, variant string, quantity int) ([]domain.CartLine, error) {
	ownerID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	key := domain.NewLineKey(productID, variant)
	if key.ProductID == "" {
		return nil, fmt.Errorf("%w: productId required", domain.ErrInvalidArgument)
	}
	if quantity > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be at most %d", domain.ErrInvalidArgument, domain.MaxLineQuantity)
	}
	return s.mutate(ctx, ownerID, "cart update quantity", func(c *domain.Cart) error {
		return c.SetQuantity(key, quantity)
	})
}

// RemoveItem drops the line if present.
func (s *Service) RemoveItem(ctx context.Context, caller domain.Identity, productID, variant string) ([]domain.CartLine, error) {
	ownerID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	key := domain.NewLineKey(productID, variant)
	return s.mutate(ctx, ownerID, "cart remove item", func(c *domain.Cart) error {
		c.Remove(key)
		return nil
	})
}

// Clear empties the caller's cart.
func (s *Service) Clear(ctx context.Context, caller domain.Identity) error {
	ownerID, err := owner(caller)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, ownerID, "cart clear", func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	return err
}

// GetItems returns a copy of the caller's lines in insertion order.
func (s *Service) GetItems(ctx context.Context, caller domain.Identity) ([]domain.CartLine, error) {
	ownerID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

// GetCart returns the caller's cart priced at current catalog prices.
func (s *Service) GetCart(ctx context.Context, caller domain.Identity) (*View, error) {
	ownerID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	view := &View{ID: c.ID, Items: []Line{}}
	if c.IsEmpty() {
		view.Totals = s.calc.Compute(nil)
		return view, nil
	}

	ids := c.ProductIDs()
	products, err := s.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	priced, err := domain.PriceLines(c.Lines, products)
	if err != nil {
		return nil, err
	}
	if s.images != nil {
		urls, err := s.images.PrimaryURLs(ctx, ids)
		if err != nil {
			// images are decoration; a failed lookup still yields a usable cart
			s.logger.Warn("primary image lookup failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		for i := range priced {
			priced[i].ImageURL = urls[priced[i].ProductID]
		}
	}

	for _, p := range priced {
		view.Items = append(view.Items, Line{
			PricedLine: p,
			LineTotal:  money.Round2(money.LineTotal(p.UnitPrice, p.Quantity)),
		})
		view.ItemCount += p.Quantity
	}
	view.Totals = s.calc.Compute(priced)
	return view, nil
}

func (s *Service) mutate(ctx context.Context, ownerID, op string, fn cartrepo.MutateFunc) ([]domain.CartLine, error) {
	var out *domain.Cart
	err := retry.OnConflict(ctx, s.logger, op, func(ctx context.Context) error {
		c, err := s.repo.Mutate(ctx, ownerID, fn)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		s.logger.Debug("cart mutation failed", zap.String("op", op), zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return out.Items(), nil
}
