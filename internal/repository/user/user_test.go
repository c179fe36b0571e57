package user

import (
	"context"
	"errors"
	"testing"

	"homegoods/internal/db/dbtest"
	"homegoods/internal/domain"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.User{Email: "Admin@Example.com", PasswordHash: "hash", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "admin@example.com" || created.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user %+v", created)
	}

	byEmail, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, byEmail.ID)
	}

	_, err = repo.Create(ctx, domain.User{Email: "admin@example.com", PasswordHash: "hash"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
