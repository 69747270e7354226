package authz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aegis-platform/aegis/internal/shared"
)

// authServer fakes the authorization endpoints with a controllable set of
// accepted bearer tokens.
type authServer struct {
	t                 *testing.T
	validTokens       map[string]bool
	refreshHits       int
	refreshFails      bool
	freshStaysInvalid bool
	granted           bool
	roleKnown         bool
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshHits++
		body, _ := io.ReadAll(r.Body)
		if s.refreshFails || strings.TrimSpace(string(body)) == "" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, "invalid refresh token")
			return
		}
		if !s.freshStaysInvalid {
			s.validTokens["fresh-token"] = true
		}
		io.WriteString(w, "fresh-token")
	})
	mux.HandleFunc("/user/sub/", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, "token expired")
			return
		}
		io.WriteString(w, "42")
	})
	mux.HandleFunc("/tenantrole/exists/role", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, "token expired")
			return
		}
		if !s.roleKnown {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "role not found")
			return
		}
		require.Equal(s.t, "42", r.URL.Query().Get("userId"))
		if s.granted {
			io.WriteString(w, "true")
		} else {
			io.WriteString(w, "false")
		}
	})
	return mux
}

func (s *authServer) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return s.validTokens[token]
}

func newTestChecker(t *testing.T, srv *authServer, tokens *TokenHolder) *Checker {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(ts.URL, 2*time.Second)
	return NewChecker(logger, client, "sub-42", tokens)
}

func TestHasRoleWithLiveToken(t *testing.T) {
	srv := &authServer{t: t, validTokens: map[string]bool{"live-token": true}, granted: true, roleKnown: true}
	checker := newTestChecker(t, srv, &TokenHolder{Access: "live-token", Refresh: "refresh-token"})

	granted, err := checker.HasRole(context.Background(), nil, "ADMIN")
	require.NoError(t, err)
	require.True(t, granted)
	require.Zero(t, srv.refreshHits)
}

func TestHasRoleRefreshesOnceOnExpiry(t *testing.T) {
	srv := &authServer{t: t, validTokens: map[string]bool{}, granted: true, roleKnown: true}
	tokens := &TokenHolder{Access: "stale-token", Refresh: "refresh-token"}
	checker := newTestChecker(t, srv, tokens)

	granted, err := checker.HasRole(context.Background(), nil, "ADMIN")
	require.NoError(t, err)
	require.True(t, granted)
	require.Equal(t, 1, srv.refreshHits)
	require.Equal(t, "fresh-token", tokens.Access)
}

func TestHasRoleDoesNotLoopWhenStillExpired(t *testing.T) {
	// The refresh endpoint answers but the new token is rejected too.
	srv := &authServer{t: t, validTokens: map[string]bool{}, freshStaysInvalid: true, granted: true, roleKnown: true}
	tokens := &TokenHolder{Access: "stale-token", Refresh: "refresh-token"}
	checker := newTestChecker(t, srv, tokens)

	_, err := checker.HasRole(context.Background(), nil, "ADMIN")
	require.ErrorIs(t, err, shared.ErrTokenExpired)
	require.Equal(t, 1, srv.refreshHits)
}

func TestRefreshFailureLeavesTokensUnchanged(t *testing.T) {
	srv := &authServer{t: t, validTokens: map[string]bool{}, refreshFails: true, roleKnown: true}
	tokens := &TokenHolder{Access: "stale-token", Refresh: "refresh-token"}
	checker := newTestChecker(t, srv, tokens)

	_, err := checker.HasRole(context.Background(), nil, "ADMIN")
	require.ErrorIs(t, err, shared.ErrTokenExpired)
	require.Equal(t, 1, srv.refreshHits)
	require.Equal(t, "stale-token", tokens.Access)

	ok := checker.RefreshToken(context.Background())
	require.False(t, ok)
	require.Equal(t, "stale-token", tokens.Access)
}

func TestHasRoleNotFoundMeansNotGranted(t *testing.T) {
	srv := &authServer{t: t, validTokens: map[string]bool{"live-token": true}, roleKnown: false}
	checker := newTestChecker(t, srv, &TokenHolder{Access: "live-token", Refresh: "refresh-token"})

	granted, err := checker.HasRole(context.Background(), nil, "GHOST")
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasRoleSourcesTokenWhenNoneHeld(t *testing.T) {
	srv := &authServer{t: t, validTokens: map[string]bool{}, granted: true, roleKnown: true}
	tokens := &TokenHolder{Refresh: "refresh-token"}
	checker := newTestChecker(t, srv, tokens)

	granted, err := checker.HasRole(context.Background(), nil, "ADMIN")
	require.NoError(t, err)
	require.True(t, granted)
	require.Equal(t, 1, srv.refreshHits)
}

func TestClientFactoryMemoizes(t *testing.T) {
	factory := NewClientFactory(time.Second)

	a := factory.For("http://auth.internal")
	b := factory.For("http://auth.internal")
	c := factory.For("http://other.internal")

	require.Same(t, a, b)
	require.NotSame(t, a, c)
}
