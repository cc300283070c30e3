// AngelaMos | 2026
// handler.go

package category

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/categories", h.List)
	r.Get("/categories/{slug}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireAdmin)

		r.Post("/categories", h.Create)
		r.Put("/categories/{categoryID}", h.Update)
		r.Delete("/categories", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListParams{}
	if popular, err := strconv.ParseBool(q.Get("popular")); err == nil {
		params.Popular = popular
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = limit
	}

	rows, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToCategoryResponseList(rows))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToCategoryResponse(c))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	c, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ToCategoryResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	if !core.IsID(categoryID) {
		core.NotFound(w, core.T("resource.category"))
		return
	}

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	c, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		categoryID,
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToCategoryResponse(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), req.IDs)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, core.T("category.deleted", strconv.Itoa(result.Deleted)), result)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, auth.ErrAccountInactive):
		core.Forbidden(w, core.T("account.inactive"))
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, core.T("category.forbidden"))
	case errors.Is(err, ErrProtected):
		core.BadRequest(w, core.T("category.protected"))
	case errors.Is(err, ErrSlugTaken):
		core.JSONError(w, core.NewAppError(
			err,
			core.T("category.slug_taken"),
			http.StatusConflict,
			"SLUG_TAKEN",
		))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, core.T("resource.category"))
	default:
		core.InternalServerError(w, err)
	}
}
