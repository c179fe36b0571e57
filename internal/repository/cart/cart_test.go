package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homegoods/internal/db/dbtest"
	"homegoods/internal/domain"
)

func TestPostgres_MutateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")
	p2 := dbtest.InsertProduct(t, pool, "vase", "Vase", "60.00")

	repo := NewPostgres(pool)

	empty, err := repo.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if empty.ID != "" || !empty.IsEmpty() {
		t.Fatalf("expected lazy empty cart, got %+v", empty)
	}

	_, err = repo.Mutate(ctx, owner, func(c *domain.Cart) error {
		if err := c.Add(domain.NewLineKey(p2, ""), 1, time.Now()); err != nil {
			return err
		}
		return c.Add(domain.NewLineKey(p1, "white"), 2, time.Now())
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got, err := repo.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Lines) != 2 || got.Lines[0].ProductID != p2 || got.Lines[1].Variant != "white" {
		t.Fatalf("unexpected lines %+v", got.Lines)
	}
}

func TestPostgres_MutateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")
	repo := NewPostgres(pool)

	boom := errors.New("boom")
	_, err := repo.Mutate(ctx, owner, func(c *domain.Cart) error {
		_ = c.Add(domain.NewLineKey(p1, ""), 1, time.Now())
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, err := repo.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsEmpty() {
		t.Fatalf("expected no lines after rollback, got %+v", got.Lines)
	}
}

func TestPostgres_ConcurrentAddsMerge(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")
	repo := NewPostgres(pool)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, owner, func(c *domain.Cart) error {
				return c.Add(domain.NewLineKey(p1, ""), qty, time.Now())
			})
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}

	got, err := repo.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 36 {
		t.Fatalf("expected merged quantity 36, got %+v", got.Lines)
	}
}
