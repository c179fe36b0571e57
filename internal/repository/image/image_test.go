package image

import (
	"context"
	"errors"
	"testing"

	"homegoods/internal/db/dbtest"
	"homegoods/internal/domain"

	"github.com/google/uuid"
)

func newImage(url string) domain.ProductImage {
	return domain.ProductImage{ID: uuid.NewString(), URL: url, AltText: url}
}

func TestPostgres_MutateKeepsContiguousOrder(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	pid := dbtest.InsertProduct(t, pool, "lamp", "Lamp", "24.50")
	repo := NewPostgres(pool, nil)

	a, b, c := newImage("/uploads/a.jpg"), newImage("/uploads/b.jpg"), newImage("/uploads/c.jpg")
	if _, err := repo.Mutate(ctx, pid, func(s *domain.ImageSet) error {
		s.Append(a, b, c)
		return nil
	}); err != nil {
		t.Fatalf("Mutate append: %v", err)
	}

	if _, err := repo.Mutate(ctx, pid, func(s *domain.ImageSet) error {
		return s.SetPrimary(c.ID)
	}); err != nil {
		t.Fatalf("Mutate set primary: %v", err)
	}

	if _, err := repo.Mutate(ctx, pid, func(s *domain.ImageSet) error {
		_, err := s.Remove(a.ID)
		return err
	}); err != nil {
		t.Fatalf("Mutate remove: %v", err)
	}

	got, err := repo.List(ctx, pid)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != c.ID || got[1].ID != b.ID {
		t.Fatalf("unexpected order %+v", got)
	}
	for i, img := range got {
		if img.SortOrder != i {
			t.Fatalf("image %s has sort order %d at index %d", img.ID, img.SortOrder, i)
		}
	}

	urls, err := repo.PrimaryURLs(ctx, []string{pid})
	if err != nil {
		t.Fatalf("PrimaryURLs: %v", err)
	}
	if urls[pid] != c.URL {
		t.Fatalf("expected primary %s, got %q", c.URL, urls[pid])
	}
}

func TestPostgres_MutateErrorLeavesRowsUntouched(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	pid := dbtest.InsertProduct(t, pool, "lamp", "Lamp", "24.50")
	repo := NewPostgres(pool, nil)

	a := newImage("/uploads/a.jpg")
	if _, err := repo.Mutate(ctx, pid, func(s *domain.ImageSet) error {
		s.Append(a)
		return nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	_, err := repo.Mutate(ctx, pid, func(s *domain.ImageSet) error {
		return s.Reorder([]string{a.ID, a.ID})
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	got, err := repo.List(ctx, pid)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("unexpected images %+v", got)
	}
}

func TestPostgres_UnknownProductAndImage(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	_, err := repo.Mutate(ctx, "00000000-0000-0000-0000-000000000000", func(*domain.ImageSet) error { return nil })
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for product, got %v", err)
	}
	_, err = repo.UpdateAltText(ctx, "00000000-0000-0000-0000-000000000000", "alt")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for image, got %v", err)
	}
	_, err = repo.GetByID(ctx, "not-a-uuid")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}
