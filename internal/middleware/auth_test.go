// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carterperez-dev/minicms/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

type countingVerifier struct {
	stubVerifier
	calls int
}

func (c *countingVerifier) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*AccessTokenClaims, error) {
	c.calls++
	return c.stubVerifier.VerifyAccessToken(ctx, token)
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", GetUserID(r.Context()))
		w.Header().Set("X-Role", GetUserRole(r.Context()).String())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator(t *testing.T) {
	valid := stubVerifier{claims: &AccessTokenClaims{UserID: "u1", Role: core.RoleEditor}}

	tests := []struct {
		name       string
		verifier   stubVerifier
		header     string
		wantStatus int
		wantUser   string
	}{
		{"missing header", valid, "", http.StatusUnauthorized, ""},
		{"wrong scheme", valid, "Basic abc", http.StatusUnauthorized, ""},
		{"expired", stubVerifier{err: core.ErrTokenExpired}, "Bearer t", http.StatusUnauthorized, ""},
		{"revoked", stubVerifier{err: core.ErrTokenRevoked}, "Bearer t", http.StatusUnauthorized, ""},
		{"valid", valid, "Bearer t", http.StatusOK, "u1"},
		{"case insensitive scheme", valid, "bearer t", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticator(tt.verifier)(echoIdentity()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-User"); got != tt.wantUser {
				t.Errorf("user = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	h := OptionalAuth(stubVerifier{err: core.ErrTokenInvalid})(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-User") != "" {
		t.Error("invalid token should leave the request anonymous")
	}
}

func TestAuthenticatorReusesOptionalAuthClaims(t *testing.T) {
	v := &countingVerifier{stubVerifier: stubVerifier{
		claims: &AccessTokenClaims{UserID: "u1", Role: core.RoleUser},
	}}
	h := OptionalAuth(v)(Authenticator(v)(echoIdentity()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Header().Get("X-User") != "u1" {
		t.Fatalf("status = %d, user = %q", rec.Code, rec.Header().Get("X-User"))
	}
	if v.calls != 1 {
		t.Errorf("token verified %d times, want 1", v.calls)
	}
}

func TestAuthenticatorAfterRejectedOptionalAuth(t *testing.T) {
	v := &countingVerifier{stubVerifier: stubVerifier{err: core.ErrTokenExpired}}
	h := OptionalAuth(v)(Authenticator(v)(echoIdentity()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       core.Role
		wantStatus int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"user", core.RoleUser, http.StatusForbidden},
		{"editor", core.RoleEditor, http.StatusOK},
		{"admin", core.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(WithUser(req.Context(), "u1", tt.role))
			}
			rec := httptest.NewRecorder()

			RequireAuthor(echoIdentity()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdminRejectsEditor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", core.RoleEditor))
	rec := httptest.NewRecorder()

	RequireAdmin(echoIdentity()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
