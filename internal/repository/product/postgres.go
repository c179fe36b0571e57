package product

import (
	"context"
	"errors"
	"fmt"

	"homegoods/internal/db"
	"homegoods/internal/domain"
	"homegoods/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const productColumns = `id::text, key, name, COALESCE(description, ''), price::text, stock, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product not found", zap.String("product_id", id))
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		r.logger.Error("get product", zap.String("product_id", id), zap.Error(err))
		return nil, db.MapError("get product", err)
	}
	return p, nil
}

func (r *postgresRepo) ListByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::text[]::uuid[])`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, db.MapError("list products", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, db.MapError("scan product", err)
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("list products", err)
	}
	r.logger.Debug("listed products", zap.Int("requested", len(ids)), zap.Int("found", len(out)))
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (key, name, description, price, stock)
VALUES ($1, $2, NULLIF($3, ''), $4::numeric, $5)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.Key,
		product.Name,
		product.Description,
		product.Price.StringFixed(2),
		product.Stock,
	))
	if err != nil {
		r.logger.Error("upsert product", zap.String("key", product.Key), zap.Error(err))
		return nil, db.MapError("upsert product", err)
	}
	r.logger.Info("upserted product", zap.String("key", res.Key), zap.String("product_id", res.ID))
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	if err := row.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &price, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	return &p, nil
}
