package users

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-platform/aegis/internal/platform/httpx"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Handler exposes user management endpoints plus the token refresh exchange.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	refresher Refresher
	validate  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, refresher Refresher) *Handler {
	return &Handler{logger: logger, service: service, refresher: refresher, validate: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/find", h.search)
	r.Get("/sub/{sub}", h.idBySubject)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

// MountRefreshRoute registers the token refresh exchange. It is mounted
// outside the bearer guard because callers arrive with an expired access
// token.
func (h *Handler) MountRefreshRoute(r chi.Router) {
	r.Post("/refresh", h.refresh)
}

type userForm struct {
	Logon    string `json:"logon" validate:"required"`
	Subject  string `json:"sub"`
	Email    string `json:"email" validate:"omitempty,email"`
	Enabled  bool   `json:"enabled"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := shared.PageParams{
		Page:        httpx.QueryInt(r, "pageNo", 1),
		PageSize:    httpx.QueryInt(r, "pageSize", 20),
		Search:      r.URL.Query().Get("search"),
		SortBy:      r.URL.Query().Get("sortBy"),
		IsAscending: httpx.QueryBool(r, "isAscending", true),
		IsExact:     httpx.QueryBool(r, "isExact", false),
	}
	page, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var enabled *bool
	if r.URL.Query().Get("enabled") != "" {
		v := httpx.QueryBool(r, "enabled", false)
		enabled = &v
	}
	filter := Filter{
		Logon:   r.URL.Query().Get("logon"),
		Email:   r.URL.Query().Get("email"),
		Subject: r.URL.Query().Get("sub"),
		Enabled: enabled,
		Opts: shared.FilterOptions{
			Exact:       httpx.QueryBool(r, "isExact", false),
			Conjunction: httpx.QueryBool(r, "isLogicalConjunction", true),
			IDs:         httpx.QueryIDList(r, "ids"),
		},
	}
	result, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("search users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []User{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

// idBySubject answers GET /user/sub/{sub} with the bare internal user id, or
// 404 when the subject is unknown.
func (h *Handler) idBySubject(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.IDBySubject(r.Context(), chi.URLParam(r, "sub"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, id)
}

// refresh exchanges the refresh token sent as the request body for a new
// access token: 200 with the token body, 401 when the refresh token is
// invalid or already consumed.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<14))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unreadable request body")
		return
	}
	refreshToken := strings.TrimSpace(strings.Trim(string(body), `"`))
	if refreshToken == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "refresh token required")
		return
	}
	accessToken, err := h.refresher.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.logger.Warn("token refresh rejected", slog.Any("error", err))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "refresh token rejected")
		return
	}
	httpx.JSON(w, http.StatusOK, accessToken)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form userForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.Create(r.Context(), User{
		Logon:   form.Logon,
		Subject: form.Subject,
		Email:   form.Email,
		Enabled: form.Enabled,
	}, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var form userForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err = h.service.Update(r.Context(), User{
		ID:      id,
		Logon:   form.Logon,
		Email:   form.Email,
		Enabled: form.Enabled,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete user", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}
