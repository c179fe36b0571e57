package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"homegoods/internal/db/dbtest"
	"homegoods/internal/domain"
	cartrepo "homegoods/internal/repository/cart"

	"github.com/shopspring/decimal"
)

func buildFixed(number string) BuildFunc {
	return func(_ context.Context, cart *domain.Cart) (*domain.Order, error) {
		o := &domain.Order{
			OrderNumber:   number,
			OwnerID:       cart.OwnerID,
			Status:        domain.OrderStatusConfirmed,
			PaymentStatus: domain.PaymentStatusPaid,
			PaymentMethod: "card",
			Subtotal:      decimal.RequireFromString("20.00"),
			Tax:           decimal.RequireFromString("1.60"),
			ShippingCost:  decimal.RequireFromString("9.99"),
			Total:         decimal.RequireFromString("31.59"),
			ShippingAddress: domain.ShippingAddress{
				FirstName: "Aman", LastName: "Durdy", Street: "1 Main", City: "Ashgabat",
				PostalCode: "744000", Country: "Turkmenistan", Phone: "+99360000000",
			},
		}
		for _, line := range cart.Lines {
			o.Items = append(o.Items, domain.OrderLine{
				ProductID: line.ProductID,
				Name:      "Mug",
				UnitPrice: decimal.RequireFromString("10.00"),
				Quantity:  line.Quantity,
				Variant:   line.Variant,
			})
		}
		return o, nil
	}
}

func TestPostgres_MaterializeClearsCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")

	carts := cartrepo.NewPostgres(pool)
	if _, err := carts.Mutate(ctx, owner, func(c *domain.Cart) error {
		return c.Add(domain.NewLineKey(p1, "white"), 2, time.Now())
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	repo := NewPostgres(pool, nil)
	created, err := repo.Materialize(ctx, owner, buildFixed("HH-TEST-0001"))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if created.ID == "" || len(created.Items) != 1 || created.Items[0].ID == "" {
		t.Fatalf("unexpected order %+v", created)
	}

	cart, err := carts.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart after checkout, got %+v", cart.Lines)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Total.StringFixed(2) != "31.59" || got.Items[0].Variant != "white" || got.ShippingAddress.City != "Ashgabat" {
		t.Fatalf("unexpected stored order %+v", got)
	}
}

func TestPostgres_MaterializeEmptyCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	repo := NewPostgres(pool, nil)

	_, err := repo.Materialize(ctx, owner, buildFixed("HH-TEST-0002"))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPostgres_MaterializeBuildErrorKeepsCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")

	carts := cartrepo.NewPostgres(pool)
	if _, err := carts.Mutate(ctx, owner, func(c *domain.Cart) error {
		return c.Add(domain.NewLineKey(p1, ""), 1, time.Now())
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	repo := NewPostgres(pool, nil)
	_, err := repo.Materialize(ctx, owner, func(context.Context, *domain.Cart) (*domain.Order, error) {
		return nil, domain.ErrNotFound
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	cart, err := carts.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("cart must survive a failed checkout, got %+v", cart.Lines)
	}
}

func TestPostgres_DuplicateOrderNumber(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")
	carts := cartrepo.NewPostgres(pool)
	repo := NewPostgres(pool, nil)

	for i := 0; i < 2; i++ {
		if _, err := carts.Mutate(ctx, owner, func(c *domain.Cart) error {
			return c.Add(domain.NewLineKey(p1, ""), 1, time.Now())
		}); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
		_, err := repo.Materialize(ctx, owner, buildFixed("HH-DUP"))
		if i == 1 && !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if i == 0 && err != nil {
			t.Fatalf("Materialize: %v", err)
		}
	}
}

func TestPostgres_ListAndUpdateStatus(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	owner := dbtest.InsertUser(t, pool, "owner@example.com")
	p1 := dbtest.InsertProduct(t, pool, "mug", "Mug", "10.00")
	carts := cartrepo.NewPostgres(pool)
	repo := NewPostgres(pool, nil)

	var ids []string
	for _, number := range []string{"HH-A", "HH-B"} {
		if _, err := carts.Mutate(ctx, owner, func(c *domain.Cart) error {
			return c.Add(domain.NewLineKey(p1, ""), 1, time.Now())
		}); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
		o, err := repo.Materialize(ctx, owner, buildFixed(number))
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		ids = append(ids, o.ID)
	}

	mine, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(mine))
	}

	updated, err := repo.UpdateStatus(ctx, ids[0], func(o *domain.Order) (domain.OrderStatus, error) {
		return domain.OrderStatusProcessing, domain.CanTransition(o.Status, domain.OrderStatusProcessing)
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.OrderStatusProcessing || len(updated.Items) != 1 {
		t.Fatalf("unexpected updated order %+v", updated)
	}

	page, total, err := repo.List(ctx, domain.OrderFilter{Status: domain.OrderStatusConfirmed, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("unexpected filtered page total=%d %+v", total, page)
	}

	_, err = repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", func(*domain.Order) (domain.OrderStatus, error) {
		return domain.OrderStatusShipped, nil
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
