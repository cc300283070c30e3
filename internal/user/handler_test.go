// AngelaMos | 2026
// handler_test.go

package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/middleware"
)

func passthrough(next http.Handler) http.Handler { return next }

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUser(
			r.Context(),
			"a0000000-0000-4000-8000-000000000001",
			core.RoleAdmin,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestAdminRoutesRejectMalformedUserID(t *testing.T) {
	repo := newMemRepo()
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterAdminRoutes(r, asAdmin, passthrough)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"get", http.MethodGet, "/admin/users/not-a-uuid", ""},
		{"role", http.MethodPut, "/admin/users/42/role", `{"role":"EDITOR"}`},
		{"active", http.MethodPut, "/admin/users/zz/active", `{"is_active":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
		})
	}

	if repo.lookups != 0 {
		t.Errorf("repository reached %d times with malformed ids", repo.lookups)
	}
}

func TestAdminGetUserByID(t *testing.T) {
	repo := newMemRepo()
	const id = "b0000000-0000-4000-8000-000000000002"
	repo.byID[id] = &User{ID: id, Email: "reader@example.com", Role: core.RoleUser, IsActive: true}

	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterAdminRoutes(r, asAdmin, passthrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reader@example.com") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
