package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry carts and orders price against. The core only
// reads it; catalog CRUD lives elsewhere.
type Product struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
}
