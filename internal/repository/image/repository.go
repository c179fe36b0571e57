package image

import (
	"context"

	"homegoods/internal/domain"
)

// MutateFunc edits a product's image set while the product row is locked.
type MutateFunc func(set *domain.ImageSet) error

type Repository interface {
	List(ctx context.Context, productID string) (domain.ImageSet, error)
	GetByID(ctx context.Context, imageID string) (*domain.ProductImage, error)
	// Mutate serializes all collection changes of one product. The set left
	// behind by fn is diffed against the stored rows and written back.
	Mutate(ctx context.Context, productID string, fn MutateFunc) (domain.ImageSet, error)
	UpdateAltText(ctx context.Context, imageID, alt string) (*domain.ProductImage, error)
	// PrimaryURLs maps product id to the URL of its sort order 0 image.
	PrimaryURLs(ctx context.Context, productIDs []string) (map[string]string, error)
}
