package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homegoods/internal/db"
	"homegoods/internal/domain"
	"homegoods/internal/logging"
	cartrepo "homegoods/internal/repository/cart"

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

const orderColumns = `id::text, order_number, user_id::text, status, payment_status, payment_method,
subtotal::text, tax::text, shipping_cost::text, total::text, shipping_address, COALESCE(notes, ''), created_at, updated_at`

func (r *postgresRepo) Materialize(ctx context.Context, ownerID string, build BuildFunc) (*domain.Order, error) {
	var out *domain.Order
	err := db.InTx(ctx, r.pool, "materialize order", func(tx pgx.Tx) error {
		cart, err := cartrepo.LockForOwner(ctx, tx, ownerID, false)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		order, err := build(ctx, cart)
		if err != nil {
			return err
		}
		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}

		cart.Clear()
		if err := cartrepo.ReplaceLines(ctx, tx, cart); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("order materialized",
		zap.String("order_number", out.OrderNumber),
		zap.String("owner_id", ownerID),
		zap.Int("lines", len(out.Items)),
	)
	return out, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	err = tx.QueryRow(ctx, `
INSERT INTO orders (order_number, user_id, status, payment_status, payment_method,
    subtotal, tax, shipping_cost, total, shipping_address, notes)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, NULLIF($11, ''))
RETURNING id::text, created_at, updated_at
`,
		o.OrderNumber, o.OwnerID, string(o.Status), string(o.PaymentStatus), o.PaymentMethod,
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.ShippingCost.StringFixed(2), o.Total.StringFixed(2),
		address, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i := range o.Items {
		item := &o.Items[i]
		batch.Queue(`
INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, variant, position)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
RETURNING id::text
`, o.ID, item.ProductID, item.Name, item.UnitPrice.StringFixed(2), item.Quantity, item.Variant, i).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&item.ID)
			})
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
		}
		return nil, db.MapError("get order", err)
	}
	if err := r.attachItems(ctx, r.pool, []*domain.Order{o}); err != nil {
		return nil, db.MapError("load order items", err)
	}
	return o, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *postgresRepo) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)
`, string(filter.Status)).Scan(&total)
	if err != nil {
		return nil, 0, db.MapError("count orders", err)
	}
	orders, err := r.list(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, string(filter.Status), filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, decide DecideFunc) (*domain.Order, error) {
	var out *domain.Order
	err := db.InTx(ctx, r.pool, "update order status", func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
			}
			return err
		}
		next, err := decide(o)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 RETURNING updated_at
`, string(next), id).Scan(&o.UpdatedAt); err != nil {
			return err
		}
		o.Status = next
		if err := r.attachItems(ctx, tx, []*domain.Order{o}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, db.MapError("list orders", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, db.MapError("scan order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("list orders", err)
	}

	ptrs := make([]*domain.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, r.pool, ptrs); err != nil {
		return nil, db.MapError("load order items", err)
	}
	return orders, nil
}

func (r *postgresRepo) attachItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.OrderLine{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, name, unit_price::text, quantity, variant
FROM order_items
WHERE order_id = ANY($1::text[]::uuid[])
ORDER BY order_id, position ASC
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderLine
		var orderID, price string
		if err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.Name, &price, &item.Quantity, &item.Variant); err != nil {
			return err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse unit price %q: %w", price, err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status, paymentStatus string
	var subtotal, tax, shipping, total string
	var address []byte
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.OwnerID,
		&status,
		&paymentStatus,
		&o.PaymentMethod,
		&subtotal,
		&tax,
		&shipping,
		&total,
		&address,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{subtotal, &o.Subtotal},
		{tax, &o.Tax},
		{shipping, &o.ShippingCost},
		{total, &o.Total},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &o, nil
}
