package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homegoods/internal/blob"
	"homegoods/internal/domain"
	"homegoods/internal/logging"
	imagerepo "homegoods/internal/repository/image"
	"homegoods/internal/retry"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxBytes = 5 << 20
	DefaultMaxBatch = 10
	storeWorkers    = 4
)

// Catalog resolves the product images are attached to.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Limits bounds a single upload request.
type Limits struct {
	MaxBytes int64
	MaxBatch int
}

type Service struct {
	repo    imagerepo.Repository
	catalog Catalog
	blobs   blob.Store
	limits  Limits
	logger  *zap.Logger
}

func New(repo imagerepo.Repository, catalog Catalog, blobs blob.Store, limits Limits, logger *zap.Logger) *Service {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultMaxBytes
	}
	if limits.MaxBatch <= 0 {
		limits.MaxBatch = DefaultMaxBatch
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		blobs:   blobs,
		limits:  limits,
		logger:  logging.OrNop(logger),
	}
}

// Upload is one file of a batch. An empty AltText gets a generated one.
type Upload struct {
	Data    []byte
	AltText string
}

// List returns the product's images, primary first.
func (s *Service) List(ctx context.Context, productID string) (domain.ImageSet, error) {
	set, err := s.repo.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = domain.ImageSet{}
	}
	return set, nil
}

// AppendBatch stores every upload and appends the images after the current
// last one. Nothing is written unless every upload is acceptable; blobs of a
// failed batch are removed again.
func (s *Service) AppendBatch(ctx context.Context, productID string, uploads []Upload) ([]domain.ProductImage, error) {
	if err := s.validate(uploads); err != nil {
		return nil, err
	}
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	urls, err := s.storeAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	images := make([]domain.ProductImage, len(uploads))
	for i, u := range uploads {
		images[i] = domain.ProductImage{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			URL:       urls[i],
			AltText:   strings.TrimSpace(u.AltText),
		}
	}

	var added []domain.ProductImage
	err = retry.OnConflict(ctx, s.logger, "append images", func(ctx context.Context) error {
		set, err := s.repo.Mutate(ctx, product.ID, func(set *domain.ImageSet) error {
			batch := make([]domain.ProductImage, len(images))
			copy(batch, images)
			start := len(*set)
			for i := range batch {
				if batch[i].AltText == "" {
					batch[i].AltText = fmt.Sprintf("%s - Image %d", product.Name, start+i+1)
				}
			}
			set.Append(batch...)
			return nil
		})
		if err != nil {
			return err
		}
		added = added[:0]
		for _, img := range images {
			if stored, ok := set.Get(img.ID); ok {
				added = append(added, stored)
			}
		}
		return nil
	})
	if err != nil {
		s.discard(urls)
		return nil, err
	}
	s.logger.Info("images appended", zap.String("product_id", product.ID), zap.Int("count", len(added)))
	return added, nil
}

func (s *Service) validate(uploads []Upload) error {
	if len(uploads) == 0 {
		return fmt.Errorf("%w: no images uploaded", domain.ErrInvalidArgument)
	}
	if len(uploads) > s.limits.MaxBatch {
		return fmt.Errorf("%w: at most %d images per upload", domain.ErrInvalidArgument, s.limits.MaxBatch)
	}
	for i, u := range uploads {
		if len(u.Data) == 0 {
			return fmt.Errorf("%w: image %d is empty", domain.ErrInvalidArgument, i+1)
		}
		if int64(len(u.Data)) > s.limits.MaxBytes {
			return fmt.Errorf("%w: image %d exceeds %d bytes", domain.ErrInvalidArgument, i+1, s.limits.MaxBytes)
		}
		if _, err := blob.Detect(u.Data); err != nil {
			return fmt.Errorf("image %d: %w", i+1, err)
		}
	}
	return nil
}

// storeAll writes the blobs in parallel. On failure the ones already written
// are deleted before returning.
func (s *Service) storeAll(ctx context.Context, uploads []Upload) ([]string, error) {
	urls := make([]string, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storeWorkers)
	for i, u := range uploads {
		i, u := i, u
		g.Go(func() error {
			url, err := s.blobs.Put(gctx, u.Data)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(urls)
		return nil, domain.AsStorage("store images", err)
	}
	return urls, nil
}

// discard removes blobs that ended up not referenced by any row.
func (s *Service) discard(urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.blobs.Delete(context.Background(), url); err != nil {
			s.logger.Warn("orphaned blob", zap.String("url", url), zap.Error(err))
		}
	}
}

// Remove deletes the image, closes the gap in the sort order and then
// deletes the blob.
func (s *Service) Remove(ctx context.Context, imageID string) error {
	img, err := s.repo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}

	var removed domain.ProductImage
	err = retry.OnConflict(ctx, s.logger, "remove image", func(ctx context.Context) error {
		_, err := s.repo.Mutate(ctx, img.ProductID, func(set *domain.ImageSet) error {
			r, err := set.Remove(imageID)
			if err != nil {
				return err
			}
			removed = r
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	// the row is committed, so the cleanup outlives the request
	if err := s.blobs.Delete(context.WithoutCancel(ctx), removed.URL); err != nil {
		s.logger.Error("delete image blob", zap.String("image_id", imageID), zap.String("url", removed.URL), zap.Error(err))
		if errors.Is(err, domain.ErrInvalidArgument) {
			// not one of ours, nothing to clean up
			return nil
		}
		return domain.AsStorage("delete image blob", err)
	}
	s.logger.Info("image removed", zap.String("image_id", imageID), zap.String("product_id", img.ProductID))
	return nil
}

// Reorder assigns sort order by position in imageIDs, which must list every
// image of the product exactly once.
func (s *Service) Reorder(ctx context.Context, productID string, imageIDs []string) (domain.ImageSet, error) {
	return s.mutate(ctx, productID, "reorder images", func(set *domain.ImageSet) error {
		return set.Reorder(imageIDs)
	})
}

// SetPrimary moves the image to position 0.
func (s *Service) SetPrimary(ctx context.Context, productID, imageID string) (domain.ImageSet, error) {
	return s.mutate(ctx, productID, "set primary image", func(set *domain.ImageSet) error {
		return set.SetPrimary(imageID)
	})
}

// UpdateAltText changes only the alt text.
func (s *Service) UpdateAltText(ctx context.Context, imageID, alt string) (*domain.ProductImage, error) {
	alt = strings.TrimSpace(alt)
	if alt == "" {
		return nil, fmt.Errorf("%w: alt text required", domain.ErrInvalidArgument)
	}
	return s.repo.UpdateAltText(ctx, imageID, alt)
}

func (s *Service) mutate(ctx context.Context, productID, op string, fn imagerepo.MutateFunc) (domain.ImageSet, error) {
	var out domain.ImageSet
	err := retry.OnConflict(ctx, s.logger, op, func(ctx context.Context) error {
		set, err := s.repo.Mutate(ctx, productID, fn)
		if err != nil {
			return err
		}
		out = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
