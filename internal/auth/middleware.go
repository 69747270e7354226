package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aegis-platform/aegis/internal/platform/httpx"
	"github.com/aegis-platform/aegis/internal/shared"
)

// RequireAuth guards routes behind a valid bearer access token. An expired
// token answers 401 with an "expired" detail so callers can trigger their
// refresh flow; an absent or invalid token answers 401 as well.
func RequireAuth(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := service.VerifyAccess(token)
			if err != nil {
				if logger != nil {
					logger.Warn("bearer token rejected", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{
				Subject: claims.Subject,
				Logon:   claims.Logon,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
