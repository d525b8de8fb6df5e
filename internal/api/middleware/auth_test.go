package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cafe-storefront/internal/auth"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing-purposes", 15*time.Minute, 7*24*time.Hour)
}

// claimsRecorder is a terminal handler that captures whatever claims the
// middleware stored in the request context.
type claimsRecorder struct {
	claims *auth.Claims
	userID string
	called bool
}

func (c *claimsRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.claims, _ = ClaimsFromContext(r.Context())
		c.userID = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// ============================================
// AuthMiddleware
// ============================================

func TestAuthMiddleware_TokenSources(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, err := jwtService.GenerateAccessToken("cookie-user", "cookie@cafe.test", auth.RoleCustomer)
	require.NoError(t, err)
	headerToken, _, err := jwtService.GenerateAccessToken("header-user", "header@cafe.test", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name       string
		decorate   func(*http.Request)
		wantUserID string
	}{
		{
			name: "cookie",
			decorate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: cookieToken})
			},
			wantUserID: "cookie-user",
		},
		{
			name: "bearer header",
			decorate: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+headerToken)
			},
			wantUserID: "header-user",
		},
		{
			name: "cookie wins over header",
			decorate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: cookieToken})
				r.Header.Set("Authorization", "Bearer "+headerToken)
			},
			wantUserID: "cookie-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &claimsRecorder{}
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			tt.decorate(req)

			resp := serve(AuthMiddleware(jwtService)(rec.handler()), req)

			assert.Equal(t, http.StatusOK, resp.Code)
			require.NotNil(t, rec.claims)
			assert.Equal(t, tt.wantUserID, rec.claims.UserID)
			assert.Equal(t, tt.wantUserID, rec.userID)
		})
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()

	expiredService := auth.NewJWTService("test-secret-key-for-testing-purposes", -time.Minute, time.Hour)
	expiredToken, _, err := expiredService.GenerateAccessToken("user-1", "a@cafe.test", auth.RoleCustomer)
	require.NoError(t, err)

	otherService := auth.NewJWTService("a-completely-different-secret-key", 15*time.Minute, time.Hour)
	foreignToken, _, err := otherService.GenerateAccessToken("user-1", "a@cafe.test", auth.RoleCustomer)
	require.NoError(t, err)

	refreshToken, _, err := jwtService.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-token"},
		{"expired token", expiredToken},
		{"wrong signing key", foreignToken},
		{"refresh token as bearer", refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &claimsRecorder{}
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp := serve(AuthMiddleware(jwtService)(rec.handler()), req)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.False(t, rec.called)
		})
	}
}

// ============================================
// OptionalAuthMiddleware
// ============================================

func TestOptionalAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	rec := &claimsRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/products", nil)

	resp := serve(OptionalAuthMiddleware(newTestJWTService())(rec.handler()), req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, rec.called)
	assert.Nil(t, rec.claims)
	assert.Empty(t, rec.userID)
}

func TestOptionalAuthMiddleware_ValidTokenAttachesClaims(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("admin-1", "admin@cafe.test", auth.RoleAdmin)
	require.NoError(t, err)

	rec := &claimsRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := serve(OptionalAuthMiddleware(jwtService)(rec.handler()), req)

	assert.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, rec.claims)
	assert.Equal(t, auth.RoleAdmin, rec.claims.Role)
}

func TestOptionalAuthMiddleware_BadTokenTreatedAsAnonymous(t *testing.T) {
	rec := &claimsRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp := serve(OptionalAuthMiddleware(newTestJWTService())(rec.handler()), req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, rec.called)
	assert.Nil(t, rec.claims)
}

// ============================================
// RequireAdmin
// ============================================

func TestRequireAdmin(t *testing.T) {
	jwtService := newTestJWTService()
	adminToken, _, err := jwtService.GenerateAccessToken("admin-1", "admin@cafe.test", auth.RoleAdmin)
	require.NoError(t, err)
	customerToken, _, err := jwtService.GenerateAccessToken("cust-1", "cust@cafe.test", auth.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCalled bool
	}{
		{"admin allowed", adminToken, http.StatusOK, true},
		{"customer forbidden", customerToken, http.StatusForbidden, false},
		{"anonymous unauthorized", "", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &claimsRecorder{}
			chain := AuthMiddleware(jwtService)(RequireAdmin(rec.handler()))
			req := httptest.NewRequest(http.MethodDelete, "/admin/products/p-1", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp := serve(chain, req)

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantCalled, rec.called)
		})
	}
}

func TestRequireAdmin_WithoutAuthMiddleware(t *testing.T) {
	// Misordered chains must fail closed.
	rec := &claimsRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)

	resp := serve(RequireAdmin(rec.handler()), req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, rec.called)
}
