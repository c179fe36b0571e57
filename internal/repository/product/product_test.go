package product

import (
	"context"
	"errors"
	"testing"

	"homegoods/internal/db/dbtest"
	"homegoods/internal/domain"
	"homegoods/internal/money"
)

func TestPostgres_GetAndList(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	pid := dbtest.InsertProduct(t, pool, "lamp", "Lamp", "24.50")

	repo := NewPostgres(pool, nil)

	got, err := repo.GetByID(ctx, pid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Lamp" || money.String(got.Price) != "24.50" {
		t.Fatalf("unexpected product %+v", got)
	}

	byID, err := repo.ListByIDs(ctx, []string{pid, "00000000-0000-0000-0000-000000000000"})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(byID) != 1 {
		t.Fatalf("expected 1 product, got %d", len(byID))
	}

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{Key: "rug", Name: "Rug", Price: money.MustParse("120"), Stock: 3})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	updated, err := repo.Upsert(ctx, domain.Product{Key: "rug", Name: "Wool Rug", Price: money.MustParse("99.90"), Stock: 1})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != p.ID {
		t.Fatalf("expected same ID after update")
	}
	if updated.Name != "Wool Rug" || money.String(updated.Price) != "99.90" || updated.Stock != 1 {
		t.Fatalf("unexpected updated product %+v", updated)
	}
}
