package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-platform/aegis/internal/platform/httpx"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Handler exposes permission and action endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/find", h.search)
	r.Get("/id", h.idByResourceAndAction)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)

	r.Route("/actions", func(r chi.Router) {
		r.Get("/", h.listActions)
		r.Post("/", h.createAction)
		r.Delete("/{id}", h.removeAction)
	})
}

type permissionForm struct {
	Name     string `json:"name" validate:"required"`
	Resource string `json:"resource" validate:"required"`
	ActionID int64  `json:"actionId" validate:"required"`
}

type actionForm struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
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
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Name:     r.URL.Query().Get("name"),
		Resource: r.URL.Query().Get("resource"),
		ActionID: httpx.QueryInt64Ptr(r, "actionId"),
		Opts: shared.FilterOptions{
			Exact:       httpx.QueryBool(r, "isExact", false),
			Conjunction: httpx.QueryBool(r, "isLogicalConjunction", true),
			IDs:         httpx.QueryIDList(r, "ids"),
		},
	}
	result, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("search permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

// idByResourceAndAction answers GET /permission/id?resource&action with the
// bare permission id: 400 when either parameter is missing, 404 when no
// permission matches.
func (h *Handler) idByResourceAndAction(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.IDByResourceAndAction(r.Context(),
		r.URL.Query().Get("resource"), r.URL.Query().Get("action"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, id)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid permission id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form permissionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), Permission{
		Name:     form.Name,
		Resource: form.Resource,
		ActionID: form.ActionID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid permission id")
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
	err = h.service.Update(r.Context(), Permission{
		ID:       id,
		Name:     form.Name,
		Resource: form.Resource,
		ActionID: form.ActionID,
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid permission id")
		return
	}
	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete permission", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}

func (h *Handler) listActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.ListActions(r.Context())
	if err != nil {
		h.logger.Error("list actions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if actions == nil {
		actions = []Action{}
	}
	httpx.JSON(w, http.StatusOK, actions)
}

func (h *Handler) createAction(w http.ResponseWriter, r *http.Request) {
	var form actionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.CreateAction(r.Context(), Action{Name: form.Name, Type: ActionType(form.Type)})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) removeAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid action id")
		return
	}
	removed, err := h.service.DeleteAction(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, removed)
}
