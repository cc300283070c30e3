// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Limiters wraps the public credential endpoints. Nil entries disable
// limiting for that route.
type Limiters struct {
	SendOTP   func(http.Handler) http.Handler
	VerifyOTP func(http.Handler) http.Handler
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiters Limiters,
	oauthEnabled bool,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(orPassthrough(limiters.SendOTP)).Post("/otp/send", h.SendOTP)
		r.With(orPassthrough(limiters.VerifyOTP)).Post("/otp/verify", h.VerifyOTP)
		r.Post("/refresh", h.Refresh)

		if oauthEnabled {
			r.Get("/oauth/{provider}", h.BeginOAuth)
			r.Get("/oauth/{provider}/callback", h.OAuthCallback)
		}

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	result, err := h.service.SendOTP(r.Context(), req.Email)
	if err != nil {
		var rlErr *RateLimitError
		switch {
		case errors.As(err, &rlErr):
			w.Header().Set(
				"Retry-After",
				strconv.Itoa(int(rlErr.RetryAfter.Seconds())),
			)
			core.JSONError(w, core.RateLimitedError(
				core.T("otp.rate_limited", strconv.Itoa(rlErr.RetryAfterHours())),
			))
		case errors.Is(err, ErrAccountInactive):
			core.Forbidden(w, core.T("account.inactive"))
		case errors.Is(err, ErrEmailDelivery):
			core.JSONError(w, core.NewAppError(
				err,
				core.T("otp.send_failed"),
				http.StatusBadGateway,
				"EMAIL_DELIVERY_FAILED",
			))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, core.T("error.validation"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	if result.AlreadySent {
		core.OKMessage(w, core.T("otp.already_sent"), SendOTPResponse{AlreadySent: true})
		return
	}

	core.OKMessage(w, core.T("otp.sent"), SendOTPResponse{})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.LoginWithOTP(
		r.Context(),
		req.Email,
		req.Code,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			core.JSONError(w, core.NewAppError(
				err,
				core.T("otp.invalid"),
				http.StatusBadRequest,
				"INVALID_CODE",
			))
		case errors.Is(err, ErrVerificationFailed):
			core.JSONError(w, core.NewAppError(
				err,
				core.T("otp.verification_failed"),
				http.StatusUnauthorized,
				"VERIFICATION_FAILED",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := core.ValidateStruct(req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenReuse):
			core.JSONError(w, core.NewAppError(
				core.ErrTokenRevoked,
				core.T("error.token_reuse"),
				http.StatusUnauthorized,
				"TOKEN_REUSE_DETECTED",
			))
		case errors.Is(err, ErrAccountInactive):
			core.Forbidden(w, core.T("account.inactive"))
		case errors.Is(err, core.ErrTokenExpired):
			core.JSONError(w, core.TokenExpiredError())
		case errors.Is(err, core.ErrTokenRevoked):
			core.JSONError(w, core.TokenRevokedError())
		case errors.Is(err, core.ErrTokenInvalid):
			core.JSONError(w, core.TokenInvalidError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.T("error.invalid_body"))
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken, userID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if claims := middleware.GetClaims(r.Context()); claims != nil {
		if err := h.service.RevokeAccessToken(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
			core.InternalServerError(w, err)
			return
		}
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessions, err := h.service.GetActiveSessions(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if !core.IsID(sessionID) {
		core.NotFound(w, core.T("resource.session"))
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, core.T("resource.session"))
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, core.T("resource.user"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, user)
}

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw != nil {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}
