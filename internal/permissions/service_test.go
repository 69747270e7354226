package permissions

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-platform/aegis/internal/shared"
)

type mockRepository struct {
	permissions map[int64]Permission
	actions     map[int64]Action
	nextID      int64
	nextAction  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		permissions: make(map[int64]Permission),
		actions:     make(map[int64]Action),
		nextID:      1,
		nextAction:  1,
	}
}

func (m *mockRepository) List(ctx context.Context, params shared.PageParams) ([]Permission, int, error) {
	var all []Permission
	for _, p := range m.permissions {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (m *mockRepository) Search(ctx context.Context, filter Filter) ([]Permission, error) {
	var all []Permission
	for _, p := range m.permissions {
		all = append(all, p)
	}
	return all, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.permissions[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) IDByResourceAndAction(ctx context.Context, resource, action string) (int64, error) {
	for _, p := range m.permissions {
		if !strings.EqualFold(p.Resource, resource) {
			continue
		}
		a, ok := m.actions[p.ActionID]
		if ok && strings.EqualFold(a.Name, action) {
			return p.ID, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (m *mockRepository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	count := 0
	for _, p := range m.permissions {
		if strings.EqualFold(p.Name, name) && p.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) Create(ctx context.Context, p Permission) (Permission, error) {
	p.ID = m.nextID
	m.nextID++
	m.permissions[p.ID] = p
	return p, nil
}

func (m *mockRepository) Update(ctx context.Context, p Permission) error {
	if _, ok := m.permissions[p.ID]; !ok {
		return shared.ErrNotFound
	}
	m.permissions[p.ID] = p
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.permissions[id]; !ok {
		return false, nil
	}
	delete(m.permissions, id)
	return true, nil
}

func (m *mockRepository) GetAction(ctx context.Context, id int64) (Action, error) {
	a, ok := m.actions[id]
	if !ok {
		return Action{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *mockRepository) ListActions(ctx context.Context) ([]Action, error) {
	var all []Action
	for _, a := range m.actions {
		all = append(all, a)
	}
	return all, nil
}

func (m *mockRepository) CountActionsByName(ctx context.Context, name string, excludeID int64) (int, error) {
	count := 0
	for _, a := range m.actions {
		if strings.EqualFold(a.Name, name) && a.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) CreateAction(ctx context.Context, a Action) (Action, error) {
	a.ID = m.nextAction
	m.nextAction++
	m.actions[a.ID] = a
	return a, nil
}

func (m *mockRepository) DeleteAction(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.actions[id]; !ok {
		return false, nil
	}
	delete(m.actions, id)
	return true, nil
}

func seed(t *testing.T, svc *Service) (Action, Permission) {
	t.Helper()
	ctx := context.Background()
	action, err := svc.CreateAction(ctx, Action{Name: "Read", Type: ActionRead})
	require.NoError(t, err)
	perm, err := svc.Create(ctx, Permission{Name: "User Management - Read", Resource: "User", ActionID: action.ID})
	require.NoError(t, err)
	return action, perm
}

func TestIDByResourceAndAction(t *testing.T) {
	svc := NewService(newMockRepository())
	_, perm := seed(t, svc)
	ctx := context.Background()

	id, err := svc.IDByResourceAndAction(ctx, "User", "Read")
	require.NoError(t, err)
	assert.Equal(t, perm.ID, id)

	_, err = svc.IDByResourceAndAction(ctx, "User", "Write")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIDByResourceAndActionRequiresBothParams(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.IDByResourceAndAction(ctx, "", "Read")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.IDByResourceAndAction(ctx, "User", "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePermissionValidatesActionReference(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), Permission{Name: "Orphan", Resource: "X", ActionID: 42})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreatePermissionRejectsDuplicateName(t *testing.T) {
	svc := NewService(newMockRepository())
	action, _ := seed(t, svc)

	_, err := svc.Create(context.Background(), Permission{
		Name: "user management - read", Resource: "Other", ActionID: action.ID,
	})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateActionValidatesType(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.CreateAction(context.Background(), Action{Name: "Bogus", Type: ActionType("frobnicate")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
