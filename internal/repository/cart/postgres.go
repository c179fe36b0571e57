package cart

import (
	"context"
	"errors"

	"homegoods/internal/db"
	"homegoods/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart := &domain.Cart{OwnerID: ownerID}
	err := r.pool.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1`, ownerID).Scan(&cart.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, db.MapError("get cart", err)
	}
	lines, err := loadLines(ctx, r.pool, cart.ID)
	if err != nil {
		return nil, db.MapError("load cart lines", err)
	}
	cart.Lines = lines
	return cart, nil
}

func (r *postgresRepo) Mutate(ctx context.Context, ownerID string, fn MutateFunc) (*domain.Cart, error) {
	var out *domain.Cart
	err := db.InTx(ctx, r.pool, "mutate cart", func(tx pgx.Tx) error {
		cart, err := LockForOwner(ctx, tx, ownerID, true)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		if err := ReplaceLines(ctx, tx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LockForOwner takes a row lock on the owner's cart and loads its lines.
// Concurrent mutations and checkouts of the same cart queue behind this lock.
// With create=false a missing cart is reported as an empty, unsaved cart.
func LockForOwner(ctx context.Context, tx pgx.Tx, ownerID string, create bool) (*domain.Cart, error) {
	if create {
		if _, err := tx.Exec(ctx, `
INSERT INTO carts (user_id) VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, ownerID); err != nil {
			return nil, err
		}
	}

	cart := &domain.Cart{OwnerID: ownerID}
	err := tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1 FOR UPDATE`, ownerID).Scan(&cart.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && !create {
			return cart, nil
		}
		return nil, err
	}

	lines, err := loadLines(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return cart, nil
}

// ReplaceLines rewrites the cart's lines so positions match slice order.
func ReplaceLines(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	if cart.ID == "" {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, line := range cart.Lines {
		batch.Queue(`
INSERT INTO cart_items (cart_id, product_id, variant, quantity, position, added_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, cart.ID, line.ProductID, line.Variant, line.Quantity, i, line.AddedAt)
	}
	batch.Queue(`UPDATE carts SET updated_at = now() WHERE id = $1`, cart.ID)
	return tx.SendBatch(ctx, batch).Close()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q querier, cartID string) ([]domain.CartLine, error) {
	rows, err := q.Query(ctx, `
SELECT product_id::text, variant, quantity, added_at
FROM cart_items
WHERE cart_id = $1
ORDER BY position ASC
`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Variant, &line.Quantity, &line.AddedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
