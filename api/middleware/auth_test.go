package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/config"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "planboard-test"}
}

func signToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole) string {
	t.Helper()
	claims := auth.AccessTokenClaims{
		UserID: "u-1",
		Email:  "planner@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthSeedsActor(t *testing.T) {
	cfg := testJWTConfig()
	var captured auth.Actor
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, cfg, enums.ActorRoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u-1", captured.ID)
	assert.Equal(t, enums.ActorRoleAdmin, captured.Role)
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/?access_token="+signToken(t, cfg, enums.ActorRoleUser), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireRoleBlocksNonAdmins(t *testing.T) {
	handler := RequireRole(enums.ActorRoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(WithActor(r.Context(), auth.Actor{ID: "u-2", Role: enums.ActorRoleUser}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(WithActor(r.Context(), auth.Actor{ID: "u-1", Role: enums.ActorRoleAdmin}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
