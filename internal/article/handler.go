// AngelaMos | 2026
// handler.go

package article

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

// RegisterRoutes mounts public reads behind optional auth and authoring
// behind the bearer and author gates.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth, authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/articles", h.List)
		r.Get("/articles/{slug}", h.GetBySlug)
		r.Get("/articles/{slug}/similar", h.Similar)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireAuthor)

		r.Post("/articles", h.Create)
		r.Put("/articles/{slug}", h.Update)
		r.Delete("/articles/{slug}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListArticlesParams{
		Page:     parseIntQuery(r, "page", 1),
		Limit:    parseIntQuery(r, "limit", 0),
		Sort:     q.Get("sort"),
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	if drafts, err := strconv.ParseBool(q.Get("drafts")); err == nil {
		params.Drafts = drafts
	}

	list, err := h.service.List(r.Context(), viewerFrom(r), params)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, list)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetBySlug(
		r.Context(),
		viewerFrom(r),
		chi.URLParam(r, "slug"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Similar(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "slug"),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "slug"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, core.T("article.deleted"), nil)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, auth.ErrAccountInactive):
		core.Forbidden(w, core.T("account.inactive"))
	case errors.Is(err, ErrNotAuthor):
		core.Forbidden(w, core.T("article.forbidden"))
	case errors.Is(err, ErrNotOwner):
		core.Forbidden(w, core.T("article.forbidden_owner"))
	case errors.Is(err, ErrArticleNotFound):
		core.NotFound(w, core.T("resource.article"))
	case errors.Is(err, ErrCategoryNotFound):
		core.NotFound(w, core.T("resource.category"))
	case errors.Is(err, ErrSlugTaken):
		core.JSONError(w, core.NewAppError(
			err,
			core.T("article.slug_taken"),
			http.StatusConflict,
			"SLUG_TAKEN",
		))
	default:
		core.InternalServerError(w, err)
	}
}

func viewerFrom(r *http.Request) Viewer {
	return Viewer{
		ID:   middleware.GetUserID(r.Context()),
		Role: middleware.GetUserRole(r.Context()),
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
