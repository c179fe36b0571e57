// Package product is the write side of the catalog used by the importer and
// the seeder. Carts and orders only read products.
package product

import (
	"context"
	"fmt"
	"strings"

	"homegoods/internal/domain"
	"homegoods/internal/logging"
	"homegoods/internal/money"
	productrepo "homegoods/internal/repository/product"

	"go.uber.org/zap"
)

type Service struct {
	repo   productrepo.Repository
	logger *zap.Logger
}

func New(repo productrepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Upsert validates the product and inserts or updates it by key. Prices are
// stored with two decimals.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Key = strings.TrimSpace(p.Key)
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	switch {
	case p.Key == "":
		return nil, fmt.Errorf("%w: product key required", domain.ErrInvalidArgument)
	case p.Name == "":
		return nil, fmt.Errorf("%w: product name required for %q", domain.ErrInvalidArgument, p.Key)
	case p.Price.IsNegative():
		return nil, fmt.Errorf("%w: negative price for %q", domain.ErrInvalidArgument, p.Key)
	case p.Stock < 0:
		return nil, fmt.Errorf("%w: negative stock for %q", domain.ErrInvalidArgument, p.Key)
	}
	p.Price = money.Round2(p.Price)
	return s.repo.Upsert(ctx, p)
}
