// AngelaMos | 2026
// oauth.go

package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/middleware"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// InitProviders registers every provider with credentials and returns
// their names. gothic keeps its state in its own cookie store.
func InitProviders(cfg config.OAuthConfig, isProduction bool) []string {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	gothic.GetProviderName = providerFromPath

	base := strings.TrimRight(cfg.CallbackBaseURL, "/")
	callback := func(name string) string {
		return fmt.Sprintf("%s/v1/auth/oauth/%s/callback", base, name)
	}

	var (
		providers []goth.Provider
		names     []string
	)

	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			callback(ProviderGoogle),
			"email",
			"profile",
		))
		names = append(names, ProviderGoogle)
	}

	if cfg.GitHubClientID != "" {
		providers = append(providers, github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			callback(ProviderGitHub),
			"user:email",
		))
		names = append(names, ProviderGitHub)
	}

	if len(providers) == 0 {
		slog.Warn("no oauth providers configured")
		return nil
	}

	goth.UseProviders(providers...)
	slog.Info("oauth providers initialized", "providers", names)

	return names
}

func providerFromPath(r *http.Request) (string, error) {
	if name := chi.URLParam(r, "provider"); name != "" {
		return name, nil
	}
	return "", errors.New("no provider in request path")
}

// SplitName turns a provider display name into first and last name.
func SplitName(u goth.User) (first, last string) {
	if u.FirstName != "" || u.LastName != "" {
		return u.FirstName, u.LastName
	}

	parts := strings.Fields(u.Name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (h *Handler) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	if _, err := goth.GetProvider(chi.URLParam(r, "provider")); err != nil {
		core.NotFound(w, core.T("oauth.unknown_provider"))
		return
	}

	gothic.BeginAuthHandler(w, r)
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, err := goth.GetProvider(provider); err != nil {
		core.NotFound(w, core.T("oauth.unknown_provider"))
		return
	}

	gu, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		slog.Warn("oauth callback failed", "provider", provider, "error", err)
		core.Unauthorized(w, core.T("oauth.failed"))
		return
	}

	first, last := SplitName(gu)

	resp, err := h.service.LoginWithProvider(r.Context(), provider, NewUser{
		Email:     gu.Email,
		FirstName: first,
		LastName:  last,
		Image:     gu.AvatarURL,
	}, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		if errors.Is(err, ErrAccountInactive) {
			core.Forbidden(w, core.T("account.inactive"))
			return
		}
		if errors.Is(err, ErrVerificationFailed) {
			core.Unauthorized(w, core.T("oauth.failed"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	//nolint:errcheck // provider session is single use
	_ = gothic.Logout(w, r)

	core.OK(w, resp)
}
