package tenantroles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-platform/aegis/internal/platform/httpx"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Handler exposes tenant-role association endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers tenant-role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Delete("/{id}", h.remove)

	r.Get("/{id}/user", h.listUsers)
	r.Post("/{id}/user", h.assignUser)
	r.Delete("/user/{id}", h.unassignUser)

	r.Get("/{id}/permission", h.listPermissions)
	r.Post("/{id}/permission", h.attachPermission)
	r.Delete("/permission/{id}", h.detachPermission)

	r.Get("/exists", h.associationExists)
	r.Get("/exists/role", h.roleExists)
	r.Get("/exists/permission", h.permissionExists)
}

type tenantRoleForm struct {
	TenantID int64 `json:"tenantId" validate:"required,gt=0"`
	RoleID   int64 `json:"roleId" validate:"required,gt=0"`
}

type userForm struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type permissionForm struct {
	PermissionID int64 `json:"permissionId" validate:"required,gt=0"`
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := shared.PageParams{
		Page:        httpx.QueryInt(r, "pageNo", 1),
		PageSize:    httpx.QueryInt(r, "pageSize", 20),
		SortBy:      r.URL.Query().Get("sortBy"),
		IsAscending: httpx.QueryBool(r, "isAscending", true),
	}
	page, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logger.Error("list tenant roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
		return
	}
	tr, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tr)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form tenantRoleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tr, err := h.service.Create(r.Context(), TenantRole{TenantID: form.TenantID, RoleID: form.RoleID})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tr)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
		return
	}
	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete tenant role", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
		return
	}
	grants, err := h.service.ListUsers(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if grants == nil {
		grants = []TenantRoleUser{}
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) assignUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
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
	grant, err := h.service.AssignUser(r.Context(), TenantRoleUser{TenantRoleID: id, UserID: form.UserID})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grant)
}

func (h *Handler) unassignUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid association id")
		return
	}
	removed, err := h.service.UnassignUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
		return
	}
	grants, err := h.service.ListPermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if grants == nil {
		grants = []TenantRolePermission{}
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) attachPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant role id")
		return
	}
	var form permissionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grant, err := h.service.AttachPermission(r.Context(),
		TenantRolePermission{TenantRoleID: id, PermissionID: form.PermissionID})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grant)
}

func (h *Handler) detachPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid association id")
		return
	}
	removed, err := h.service.DetachPermission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}

func (h *Handler) associationExists(w http.ResponseWriter, r *http.Request) {
	filter := AssociationFilter{
		TenantID:     httpx.QueryInt64Ptr(r, "tenantId"),
		RoleID:       httpx.QueryInt64Ptr(r, "roleId"),
		PermissionID: httpx.QueryInt64Ptr(r, "permissionId"),
		UserID:       httpx.QueryInt64Ptr(r, "userId"),
		Conjunction:  httpx.QueryBool(r, "isLogicalConjunction", true),
	}
	exists, err := h.service.AssociationExists(r.Context(), filter)
	if err != nil {
		h.logger.Error("association exists", slog.Any("error", err))
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

func (h *Handler) permissionExists(w http.ResponseWriter, r *http.Request) {
	userID, okUser := httpx.QueryInt64(r, "userId")
	permissionID, okPerm := httpx.QueryInt64(r, "permissionId")
	if !okUser || !okPerm {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and permissionId are required")
		return
	}
	granted, err := h.service.IsPermissionGranted(r.Context(), userID, permissionID, httpx.QueryInt64Ptr(r, "tenantId"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Bool(w, granted)
}
