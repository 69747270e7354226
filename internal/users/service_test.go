package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-platform/aegis/internal/shared"
)

type mockRepo struct {
	Repository
	rows   map[int64]User
	nextID int64
}

func newMockRepo(seed ...User) *mockRepo {
	m := &mockRepo{rows: map[int64]User{}, nextID: 1}
	for _, u := range seed {
		u.ID = m.nextID
		m.rows[u.ID] = u
		m.nextID++
	}
	return m
}

func (m *mockRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.rows[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByLogon(_ context.Context, logon string) (User, error) {
	for _, u := range m.rows {
		if u.Logon == logon {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *mockRepo) GetBySubject(_ context.Context, subject string) (User, error) {
	for _, u := range m.rows {
		if u.Subject == subject {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *mockRepo) IDBySubject(_ context.Context, subject string) (int64, error) {
	for _, u := range m.rows {
		if u.Subject == subject {
			return u.ID, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (m *mockRepo) CountByNaturalKeys(_ context.Context, logon, subject string, excludeID int64) (int, error) {
	count := 0
	for _, u := range m.rows {
		if u.ID == excludeID {
			continue
		}
		if u.Logon == logon || u.Subject == subject {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) Create(_ context.Context, user User) (User, error) {
	user.ID = m.nextID
	m.nextID++
	m.rows[user.ID] = user
	return user, nil
}

func (m *mockRepo) Update(_ context.Context, user User) error {
	existing, ok := m.rows[user.ID]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Logon = user.Logon
	existing.Email = user.Email
	existing.Enabled = user.Enabled
	m.rows[user.ID] = existing
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestCreateRejectsDuplicateLogon(t *testing.T) {
	svc := NewService(newMockRepo(User{Logon: "karen", Subject: "sub-1", Enabled: true}))

	_, err := svc.Create(context.Background(), User{Logon: "karen", Subject: "sub-2"}, "")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRejectsDuplicateSubject(t *testing.T) {
	svc := NewService(newMockRepo(User{Logon: "karen", Subject: "sub-1", Enabled: true}))

	_, err := svc.Create(context.Background(), User{Logon: "other", Subject: "sub-1"}, "")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), User{Logon: "karen", Subject: "sub-1"}, "hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", created.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2hunter2")))
}

func TestAuthenticate(t *testing.T) {
	repo := newMockRepo(
		User{Logon: "karen", Subject: "sub-1", Enabled: true, PasswordHash: hashFor(t, "hunter2hunter2")},
		User{Logon: "mallory", Subject: "sub-2", Enabled: false, PasswordHash: hashFor(t, "hunter2hunter2")},
	)
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, "sub-1", user.Subject)

	_, err = svc.Authenticate(ctx, "karen", "nope")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// A disabled account looks the same as an unknown one.
	_, err = svc.Authenticate(ctx, "mallory", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ghost", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestUpdateKeepsSubjectImmutable(t *testing.T) {
	repo := newMockRepo(User{Logon: "karen", Subject: "sub-1", Enabled: true})
	svc := NewService(repo)

	err := svc.Update(context.Background(), User{ID: 1, Logon: "karen.w", Subject: "hijacked", Enabled: true})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "karen.w", got.Logon)
	require.Equal(t, "sub-1", got.Subject)
}

func TestIDBySubject(t *testing.T) {
	svc := NewService(newMockRepo(User{Logon: "karen", Subject: "sub-1", Enabled: true}))
	ctx := context.Background()

	id, err := svc.IDBySubject(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	_, err = svc.IDBySubject(ctx, "unknown")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.IDBySubject(ctx, "  ")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetBySubjectIsCaseSensitive(t *testing.T) {
	svc := NewService(newMockRepo(
		User{Logon: "karen", Subject: "sub-1", Enabled: true},
		User{Logon: "karl", Subject: "SUB-1", Enabled: true},
	))
	ctx := context.Background()

	got, err := svc.GetBySubject(ctx, "SUB-1")
	require.NoError(t, err)
	require.Equal(t, "karl", got.Logon)

	_, err = svc.GetBySubject(ctx, "sub-x")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.GetBySubject(ctx, " ")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteIdempotent(t *testing.T) {
	svc := NewService(newMockRepo(User{Logon: "karen", Subject: "sub-1"}))
	ctx := context.Background()

	removed, err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	require.False(t, removed)
}
