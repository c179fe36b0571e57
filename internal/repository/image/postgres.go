package image

import (
	"context"
	"errors"
	"fmt"

	"homegoods/internal/db"
	"homegoods/internal/domain"
	"homegoods/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const imageColumns = `id::text, product_id::text, url, alt_text, sort_order, created_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) List(ctx context.Context, productID string) (domain.ImageSet, error) {
	if err := productExists(ctx, r.pool, productID, false); err != nil {
		return nil, db.MapError("list images", err)
	}
	images, err := loadImages(ctx, r.pool, productID)
	if err != nil {
		return nil, db.MapError("list images", err)
	}
	return domain.NewImageSet(images), nil
}

func (r *postgresRepo) GetByID(ctx context.Context, imageID string) (*domain.ProductImage, error) {
	img, err := scanImage(r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM product_images WHERE id = $1`, imageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, imageID)
		}
		return nil, db.MapError("get image", err)
	}
	return img, nil
}

func (r *postgresRepo) Mutate(ctx context.Context, productID string, fn MutateFunc) (domain.ImageSet, error) {
	var out domain.ImageSet
	err := db.InTx(ctx, r.pool, "mutate images", func(tx pgx.Tx) error {
		if err := productExists(ctx, tx, productID, true); err != nil {
			return err
		}
		stored, err := loadImages(ctx, tx, productID)
		if err != nil {
			return err
		}
		set := domain.NewImageSet(stored)
		if err := fn(&set); err != nil {
			return err
		}
		if err := set.Validate(); err != nil {
			return err
		}
		if err := writeDiff(ctx, tx, productID, stored, set); err != nil {
			return err
		}
		out = set
		return nil
	})
	if err != nil {
		r.logger.Debug("image mutation aborted", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) UpdateAltText(ctx context.Context, imageID, alt string) (*domain.ProductImage, error) {
	img, err := scanImage(r.pool.QueryRow(ctx, `
UPDATE product_images SET alt_text = $1 WHERE id = $2
RETURNING `+imageColumns, alt, imageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, imageID)
		}
		return nil, db.MapError("update image alt text", err)
	}
	return img, nil
}

func (r *postgresRepo) PrimaryURLs(ctx context.Context, productIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
SELECT product_id::text, url
FROM product_images
WHERE product_id = ANY($1::text[]::uuid[]) AND sort_order = 0
`, productIDs)
	if err != nil {
		return nil, db.MapError("primary image urls", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID, url string
		if err := rows.Scan(&productID, &url); err != nil {
			return nil, db.MapError("scan primary image", err)
		}
		out[productID] = url
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("primary image urls", err)
	}
	return out, nil
}

// productExists optionally takes the row lock that serializes image changes
// of one product.
func productExists(ctx context.Context, q querier, productID string, lock bool) error {
	query := `SELECT id::text FROM products WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var id string
	if err := q.QueryRow(ctx, query, productID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
		}
		return err
	}
	return nil
}

func loadImages(ctx context.Context, q querier, productID string) ([]domain.ProductImage, error) {
	rows, err := q.Query(ctx, `
SELECT `+imageColumns+`
FROM product_images
WHERE product_id = $1
ORDER BY sort_order ASC, created_at ASC
`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// writeDiff persists the difference between the stored rows and the new set.
// The (product_id, sort_order) constraint is deferred, so intermediate
// duplicates inside the transaction are fine.
func writeDiff(ctx context.Context, tx pgx.Tx, productID string, stored []domain.ProductImage, set domain.ImageSet) error {
	before := make(map[string]domain.ProductImage, len(stored))
	for _, img := range stored {
		before[img.ID] = img
	}

	batch := &pgx.Batch{}
	for i := range set {
		img := &set[i]
		old, ok := before[img.ID]
		delete(before, img.ID)
		switch {
		case !ok:
			batch.Queue(`
INSERT INTO product_images (id, product_id, url, alt_text, sort_order)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at
`, img.ID, productID, img.URL, img.AltText, img.SortOrder).QueryRow(func(row pgx.Row) error {
				return row.Scan(&img.CreatedAt)
			})
		case old.SortOrder != img.SortOrder || old.AltText != img.AltText || old.URL != img.URL:
			batch.Queue(`
UPDATE product_images SET url = $1, alt_text = $2, sort_order = $3 WHERE id = $4
`, img.URL, img.AltText, img.SortOrder, img.ID)
		}
	}
	for id := range before {
		batch.Queue(`DELETE FROM product_images WHERE id = $1`, id)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanImage(row pgx.Row) (*domain.ProductImage, error) {
	var img domain.ProductImage
	if err := row.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText, &img.SortOrder, &img.CreatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}
