package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-platform/aegis/internal/shared"
	"github.com/aegis-platform/aegis/internal/users"
)

type stubUserRepo struct {
	users.Repository
	byLogon map[string]users.User
}

func (r *stubUserRepo) GetByLogon(_ context.Context, logon string) (users.User, error) {
	u, ok := r.byLogon[logon]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) GetBySubject(_ context.Context, subject string) (users.User, error) {
	for _, u := range r.byLogon {
		if u.Subject == subject {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func newTestService(t *testing.T) (*Service, *stubUserRepo, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubUserRepo{byLogon: map[string]users.User{
		"karen": {ID: 7, Logon: "karen", Subject: "sub-karen", Enabled: true, PasswordHash: string(hash)},
	}}

	svc := NewService(users.NewService(repo), NewRedisRefreshStore(client), Config{
		Secret:    []byte("test-secret"),
		Issuer:    "aegis-test",
		AccessTTL: 15 * time.Minute,
	})
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, repo, &clock
}

func TestLoginIssuesVerifiablePair(t *testing.T) {
	svc, _, _ := newTestService(t)

	pair, err := svc.Login(context.Background(), "karen", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "sub-karen", claims.Subject)
	require.Equal(t, "karen", claims.Logon)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "karen", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyAccessExpired(t *testing.T) {
	svc, _, clock := newTestService(t)

	pair, err := svc.Login(context.Background(), "karen", "hunter2hunter2")
	require.NoError(t, err)

	*clock = clock.Add(16 * time.Minute)
	_, err = svc.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)

	*clock = clock.Add(20 * time.Minute)
	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, "sub-karen", claims.Subject)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshAfterRevoke(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshMatchesSubjectByteExactly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// A second account whose subject differs only in case must not shadow
	// the refreshing one.
	repo.byLogon["karen2"] = users.User{
		ID: 8, Logon: "karen2", Subject: "SUB-KAREN", Enabled: true,
		PasswordHash: repo.byLogon["karen"].PasswordHash,
	}

	pair, err := svc.Login(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, "sub-karen", claims.Subject)
	require.Equal(t, "karen", claims.Logon)
}

func TestRefreshRejectsDisabledUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "karen", "hunter2hunter2")
	require.NoError(t, err)

	u := repo.byLogon["karen"]
	u.Enabled = false
	repo.byLogon["karen"] = u

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
