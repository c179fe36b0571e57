package seed

import (
	"context"
	"testing"

	"homegoods/internal/domain"
)

type memRegistrar struct {
	users map[string]domain.User
}

func (m *memRegistrar) Register(_ context.Context, u domain.User, _ string) (*domain.User, error) {
	if _, ok := m.users[u.Email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	m.users[u.Email] = u
	return &u, nil
}

type memWriter struct {
	byKey map[string]domain.Product
}

func (m *memWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.byKey[p.Key] = p
	return &p, nil
}

func TestApplyIsRepeatable(t *testing.T) {
	reg := &memRegistrar{users: map[string]domain.User{}}
	writer := &memWriter{byKey: map[string]domain.Product{}}

	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), reg, writer, nil); err != nil {
			t.Fatalf("Apply run %d: %v", i+1, err)
		}
	}
	if len(reg.users) != 2 || reg.users["admin@homegoods.local"].Role != domain.RoleAdmin {
		t.Fatalf("unexpected users %+v", reg.users)
	}
	if len(writer.byKey) != len(products) {
		t.Fatalf("expected %d products, got %d", len(products), len(writer.byKey))
	}
}
