package roles

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-platform/aegis/internal/shared"
)

type mockRepository struct {
	roles  map[int64]Role
	nextID int64

	listError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{roles: make(map[int64]Role), nextID: 1}
}

func (m *mockRepository) matches(role Role, search string, exact bool) bool {
	if search == "" {
		return true
	}
	if exact {
		return strings.EqualFold(role.Name, search)
	}
	return strings.Contains(strings.ToLower(role.Name), strings.ToLower(search))
}

func (m *mockRepository) List(ctx context.Context, params shared.PageParams) ([]Role, int, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	var all []Role
	for _, role := range m.roles {
		if m.matches(role, params.Search, params.IsExact) {
			all = append(all, role)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if params.IsAscending {
			return all[i].Name < all[j].Name
		}
		return all[i].Name > all[j].Name
	})
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *mockRepository) Search(ctx context.Context, filter Filter) ([]Role, error) {
	var all []Role
	for _, role := range m.roles {
		if m.matches(role, filter.Name, filter.Opts.Exact) {
			all = append(all, role)
		}
	}
	return all, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (m *mockRepository) GetByName(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) {
			return role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (m *mockRepository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	count := 0
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) && role.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) Create(ctx context.Context, role Role) (Role, error) {
	role.ID = m.nextID
	role.CreateDate = time.Now()
	role.LastUpdate = role.CreateDate
	m.nextID++
	m.roles[role.ID] = role
	return role, nil
}

func (m *mockRepository) Update(ctx context.Context, role Role) error {
	existing, ok := m.roles[role.ID]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = role.Name
	existing.Description = role.Description
	m.roles[role.ID] = existing
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.roles[id]; !ok {
		return false, nil
	}
	delete(m.roles, id)
	return true, nil
}

func seedRoles(t *testing.T, svc *Service, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := svc.Create(context.Background(), Role{Name: name})
		require.NoError(t, err)
	}
}

func TestListPartialMatchAscending(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	seedRoles(t, svc, "Admin", "Administrator", "Guest")

	page, err := svc.List(context.Background(), shared.PageParams{
		Page: 1, PageSize: 10, Search: "Adm", IsAscending: true, IsExact: false,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Admin", page.Results[0].Name)
	assert.Equal(t, "Administrator", page.Results[1].Name)
	assert.Equal(t, 2, page.TotalResults)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListExactMatch(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	seedRoles(t, svc, "Admin", "Administrator", "Guest")

	page, err := svc.List(context.Background(), shared.PageParams{
		Page: 1, PageSize: 10, Search: "Admin", IsAscending: true, IsExact: true,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Admin", page.Results[0].Name)
}

func TestListPaginationRoundTrip(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	seedRoles(t, svc, names...)

	const pageSize = 3
	seen := 0
	pageNo := 1
	for {
		page, err := svc.List(context.Background(), shared.PageParams{
			Page: pageNo, PageSize: pageSize, IsAscending: true,
		})
		require.NoError(t, err)
		seen += len(page.Results)
		if pageNo >= page.TotalPages {
			assert.Equal(t, 3, page.TotalPages)
			break
		}
		pageNo++
	}
	assert.Equal(t, len(names), seen)
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	seedRoles(t, svc, "ADMIN")

	_, err := svc.Create(context.Background(), Role{Name: "admin"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestGetByNameRequiresName(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.GetByName(context.Background(), "  ")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetByNameNotFound(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.GetByName(context.Background(), "MISSING")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
