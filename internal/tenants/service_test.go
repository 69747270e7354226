package tenants

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-platform/aegis/internal/shared"
)

type mockRepository struct {
	tenants map[int64]Tenant
	nextID  int64

	countError  error
	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{tenants: make(map[int64]Tenant), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, params shared.PageParams) ([]Tenant, int, error) {
	var all []Tenant
	for _, t := range m.tenants {
		if params.Search != "" {
			if params.IsExact {
				if !strings.EqualFold(t.Name, params.Search) {
					continue
				}
			} else if !strings.Contains(strings.ToLower(t.Name), strings.ToLower(params.Search)) {
				continue
			}
		}
		all = append(all, t)
	}
	return all, len(all), nil
}

func (m *mockRepository) Search(ctx context.Context, filter Filter) ([]Tenant, error) {
	var all []Tenant
	for _, t := range m.tenants {
		all = append(all, t)
	}
	return all, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return Tenant{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *mockRepository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	if m.countError != nil {
		return 0, m.countError
	}
	count := 0
	for _, t := range m.tenants {
		if strings.EqualFold(t.Name, name) && t.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) Create(ctx context.Context, tenant Tenant) (Tenant, error) {
	if m.createError != nil {
		return Tenant{}, m.createError
	}
	tenant.ID = m.nextID
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt
	m.nextID++
	m.tenants[tenant.ID] = tenant
	return tenant, nil
}

func (m *mockRepository) Update(ctx context.Context, tenant Tenant) error {
	existing, ok := m.tenants[tenant.ID]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = tenant.Name
	m.tenants[tenant.ID] = existing
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.tenants[id]; !ok {
		return false, nil
	}
	delete(m.tenants, id)
	return true, nil
}

func TestCreateTenantRejectsDuplicateName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, Tenant{Name: "Acme"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = svc.Create(ctx, Tenant{Name: "acme"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	second, err := svc.Create(ctx, Tenant{Name: "Globex"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateTenantRequiresName(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), Tenant{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateTenantExcludesOwnID(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Tenant{Name: "Acme"})
	require.NoError(t, err)

	// Renaming to its own name must not trip the duplicate check.
	require.NoError(t, svc.Update(ctx, Tenant{ID: created.ID, Name: "Acme"}))

	other, err := svc.Create(ctx, Tenant{Name: "Globex"})
	require.NoError(t, err)
	err = svc.Update(ctx, Tenant{ID: other.ID, Name: "Acme"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteTenantIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Tenant{Name: "Acme"})
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
