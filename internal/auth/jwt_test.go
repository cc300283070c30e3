// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testJWTManager(t)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		Email:        "editor@example.com",
		Role:         core.RoleEditor,
		TokenVersion: 3,
	})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	claims, err := m.VerifyAccessToken(t.Context(), token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "editor@example.com" {
		t.Errorf("identity = %s/%s", claims.UserID, claims.Email)
	}
	if claims.Role != core.RoleEditor {
		t.Errorf("role = %s, want EDITOR", claims.Role)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("token version = %d, want 3", claims.TokenVersion)
	}
	if claims.JTI == "" {
		t.Error("missing jti")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := testJWTManager(t)
	verifier := testJWTManager(t)

	token, err := issuer.CreateAccessToken(AccessTokenClaims{
		UserID: "user-1",
		Role:   core.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	_, err = verifier.VerifyAccessToken(t.Context(), token)
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := testJWTManager(t)

	_, err := m.VerifyAccessToken(t.Context(), "not.a.token")
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestEnsureKeyPairRefusesGenerationInProduction(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
	}

	if err := EnsureKeyPair(cfg, true); err == nil {
		t.Fatal("expected an error for missing production keys")
	}
}

func TestJWKSPublishesSigningKey(t *testing.T) {
	m := testJWTManager(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(body.Keys))
	}
	if body.Keys[0]["kid"] != m.GetKeyID() {
		t.Errorf("kid = %v, want %s", body.Keys[0]["kid"], m.GetKeyID())
	}
	if _, hasPrivate := body.Keys[0]["d"]; hasPrivate {
		t.Error("private component published")
	}
}

func TestRefreshTokenIsStoredAsHash(t *testing.T) {
	m := testJWTManager(t)

	data, err := m.CreateRefreshToken("user-1", "")
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}

	if data.FamilyID == "" {
		t.Error("new family id not assigned")
	}
	if data.Hash != core.HashToken(data.Token) || strings.Contains(data.Hash, data.Token) {
		t.Error("hash does not match token")
	}

	rotated, err := m.CreateRefreshToken("user-1", data.FamilyID)
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	if rotated.FamilyID != data.FamilyID {
		t.Error("rotation changed the family")
	}
}
