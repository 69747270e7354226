package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aegis-platform/aegis/internal/auth"
	"github.com/aegis-platform/aegis/internal/linkedauth"
	"github.com/aegis-platform/aegis/internal/permissions"
	"github.com/aegis-platform/aegis/internal/roles"
	"github.com/aegis-platform/aegis/internal/tenantroles"
	"github.com/aegis-platform/aegis/internal/tenants"
	"github.com/aegis-platform/aegis/internal/users"
	"github.com/aegis-platform/aegis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthService        *auth.Service
	AuthHandler        *auth.Handler
	TenantsHandler     *tenants.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	UsersHandler       *users.Handler
	TenantRolesHandler *tenantroles.Handler
	LinkedAuthHandler  *linkedauth.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Aegis defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/user", func(r chi.Router) {
		params.UsersHandler.MountRefreshRoute(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(params.AuthService, params.Logger))
			params.UsersHandler.MountRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(params.AuthService, params.Logger))
		r.Route("/tenant", params.TenantsHandler.MountRoutes)
		r.Route("/role", params.RolesHandler.MountRoutes)
		r.Route("/permission", params.PermissionsHandler.MountRoutes)
		r.Route("/tenantrole", params.TenantRolesHandler.MountRoutes)
		r.Route("/linkedauthorization", params.LinkedAuthHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
