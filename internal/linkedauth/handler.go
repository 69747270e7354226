package linkedauth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-platform/aegis/internal/platform/httpx"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Handler exposes the legacy linked-authorization endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers linked-authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/find", h.search)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Delete("/{id}", h.remove)

	r.Get("/exists", h.exists)
	r.Get("/exists/role", h.roleExists)
	r.Get("/exists/checkPermissions", h.checkPermissions)
}

type createForm struct {
	TenantID     int64 `json:"tenantId" validate:"required,gt=0"`
	RoleID       int64 `json:"roleId" validate:"required,gt=0"`
	PermissionID int64 `json:"permissionId" validate:"required,gt=0"`
	UserID       int64 `json:"userId" validate:"required,gt=0"`
}

func queryFilter(r *http.Request) Filter {
	return Filter{
		TenantID:     httpx.QueryInt64Ptr(r, "tenantId"),
		RoleID:       httpx.QueryInt64Ptr(r, "roleId"),
		PermissionID: httpx.QueryInt64Ptr(r, "permissionId"),
		UserID:       httpx.QueryInt64Ptr(r, "userId"),
		Opts: shared.FilterOptions{
			Conjunction: httpx.QueryBool(r, "isLogicalConjunction", true),
			IDs:         httpx.QueryIDList(r, "ids"),
		},
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := shared.PageParams{
		Page:        httpx.QueryInt(r, "pageNo", 1),
		PageSize:    httpx.QueryInt(r, "pageSize", 20),
		SortBy:      r.URL.Query().Get("sortBy"),
		IsAscending: httpx.QueryBool(r, "isAscending", true),
	}
	page, err := h.service.List(r.Context(), queryFilter(r), params)
	if err != nil {
		h.logger.Error("list linked authorizations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Search(r.Context(), queryFilter(r))
	if err != nil {
		h.logger.Error("search linked authorizations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []LinkedAuthorization{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid linked authorization id")
		return
	}
	la, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, la)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), LinkedAuthorization{
		TenantID:     form.TenantID,
		RoleID:       form.RoleID,
		PermissionID: form.PermissionID,
		UserID:       form.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid linked authorization id")
		return
	}
	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete linked authorization", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}

func (h *Handler) exists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.Exists(r.Context(), queryFilter(r))
	if err != nil {
		h.logger.Error("linked authorization exists", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Bool(w, exists)
}

func (h *Handler) roleExists(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.QueryInt64(r, "userId")
	roleName := r.URL.Query().Get("roleName")
	if !ok || roleName == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and roleName are required")
		return
	}
	granted, err := h.service.IsRoleGranted(r.Context(), userID, roleName, httpx.QueryInt64Ptr(r, "tenantId"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Bool(w, granted)
}

func (h *Handler) checkPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.QueryInt64(r, "userId")
	roleNames := r.URL.Query()["roleName"]
	if !ok || len(roleNames) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and roleName are required")
		return
	}
	granted, err := h.service.CheckRoles(r.Context(), userID, roleNames, httpx.QueryInt64Ptr(r, "tenantId"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Bool(w, granted)
}
