// AngelaMos | 2026
// handler.go

package comment

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

// RegisterRoutes mounts the public thread read and the authenticated
// moderation endpoints. createLimiter may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	createLimiter func(http.Handler) http.Handler,
) {
	r.Get("/articles/{articleID}/comments", h.ListApproved)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		if createLimiter != nil {
			r.With(createLimiter).Post("/comments", h.Create)
		} else {
			r.Post("/comments", h.Create)
		}
		r.Get("/comments", h.ListForModeration)
		r.Post("/comments/{commentID}/approve", h.Approve)
		r.Delete("/comments", h.Delete)
	})
}

func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")
	if !core.IsID(articleID) {
		h.handleError(w, ErrArticleNotFound)
		return
	}

	nodes, err := h.service.ListApproved(r.Context(), articleID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, nodes)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.Create(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	message := core.T("comment.created_live")
	if result.Pending {
		message = core.T("comment.created_pending")
	}

	core.CreatedMessage(w, message, ToCommentResponse(result.Comment))
}

func (h *Handler) ListForModeration(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	for _, key := range []string{"author_id", "article_id"} {
		if raw := q.Get(key); raw != "" && !core.IsID(raw) {
			core.BadRequest(w, core.T("error.invalid_id", key))
			return
		}
	}

	filter := ModerationFilter{
		AuthorID:  q.Get("author_id"),
		ArticleID: q.Get("article_id"),
		Page:      parseIntQuery(r, "page", 1),
		PageSize:  parseIntQuery(r, "page_size", 20),
	}
	if raw := q.Get("approved"); raw != "" {
		if approved, err := strconv.ParseBool(raw); err == nil {
			filter.Approved = &approved
		}
	}
	filter.Normalize()

	rows, total, err := h.service.ListForModeration(
		r.Context(),
		middleware.GetUserID(r.Context()),
		filter,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Paginated(
		w,
		ToModerationResponseList(rows),
		filter.Page,
		filter.PageSize,
		total,
	)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentID")
	if !core.IsID(commentID) {
		h.handleError(w, ErrCommentNotFound)
		return
	}

	c, err := h.service.Approve(
		r.Context(),
		middleware.GetUserID(r.Context()),
		commentID,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, core.T("comment.approved"), ToCommentResponse(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.IDs,
		req.Admin,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(
		w,
		core.T("comment.deleted", strconv.Itoa(result.Deleted)),
		result,
	)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	v := h.service.Validator()

	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, auth.ErrAccountInactive):
		core.Forbidden(w, core.T("account.inactive"))
	case errors.Is(err, ErrContentTooShort):
		core.BadRequest(w, core.T("comment.too_short", strconv.Itoa(v.MinLength())))
	case errors.Is(err, ErrContentTooLong):
		core.BadRequest(w, core.T("comment.too_long", strconv.Itoa(v.MaxLength())))
	case errors.Is(err, ErrInappropriateContent):
		core.BadRequest(w, core.T("comment.inappropriate"))
	case errors.Is(err, ErrArticleNotFound):
		core.JSONError(w, core.NewAppError(
			err,
			core.T("comment.article_not_found"),
			http.StatusNotFound,
			"NOT_FOUND",
		))
	case errors.Is(err, ErrParentNotFound):
		core.JSONError(w, core.NewAppError(
			err,
			core.T("comment.parent_not_found"),
			http.StatusNotFound,
			"NOT_FOUND",
		))
	case errors.Is(err, ErrParentArticleMismatch):
		core.BadRequest(w, core.T("comment.parent_mismatch"))
	case errors.Is(err, ErrMaxDepthExceeded):
		core.BadRequest(w, core.T("comment.max_depth", strconv.Itoa(h.service.MaxDepth())))
	case errors.Is(err, ErrCommentNotFound):
		core.NotFound(w, core.T("resource.comment"))
	case errors.Is(err, ErrDeleteForbidden):
		core.Forbidden(w, core.T("comment.delete_forbidden"))
	case errors.Is(err, ErrListForbidden):
		core.Forbidden(w, core.T("comment.list_forbidden"))
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	default:
		core.InternalServerError(w, err)
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
