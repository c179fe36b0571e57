package seed

import (
	"context"
	"errors"
	"fmt"

	"homegoods/internal/domain"
	"homegoods/internal/logging"
	"homegoods/internal/money"

	"go.uber.org/zap"
)

// Registrar creates accounts with hashed passwords.
type Registrar interface {
	Register(ctx context.Context, u domain.User, password string) (*domain.User, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type userSeed struct {
	Email     string
	Password  string
	FirstName string
	Role      domain.Role
}

type productSeed struct {
	Key         string
	Name        string
	Description string
	Price       string
	Stock       int
}

var users = []userSeed{
	{Email: "admin@homegoods.local", Password: "admin12345", FirstName: "Admin", Role: domain.RoleAdmin},
	{Email: "customer@homegoods.local", Password: "customer123", FirstName: "Demo", Role: domain.RoleCustomer},
}

var products = []productSeed{
	{Key: "stoneware-mug", Name: "Stoneware Mug", Description: "Hand glazed 350ml mug", Price: "12.50", Stock: 40},
	{Key: "linen-throw", Name: "Linen Throw", Description: "Washed linen blanket", Price: "64.00", Stock: 12},
	{Key: "glass-vase", Name: "Glass Vase", Description: "Mouth blown clear vase", Price: "38.90", Stock: 20},
	{Key: "oak-tray", Name: "Oak Serving Tray", Description: "Solid oak with brass handles", Price: "79.00", Stock: 8},
}

// Apply inserts basic seed data for manual testing. Running it twice updates
// products and leaves existing accounts alone.
func Apply(ctx context.Context, registrar Registrar, writer ProductWriter, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	for _, u := range users {
		created, err := registrar.Register(ctx, domain.User{Email: u.Email, FirstName: u.FirstName, Role: u.Role}, u.Password)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			logger.Info("seed user exists", zap.String("email", u.Email))
		case err != nil:
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		default:
			logger.Info("seed user created", zap.String("email", created.Email), zap.String("role", string(created.Role)))
		}
	}

	for _, p := range products {
		price, err := money.Parse(p.Price)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.Key, err)
		}
		if _, err := writer.Upsert(ctx, domain.Product{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	logger.Info("seed products upserted", zap.Int("count", len(products)))
	return nil
}
