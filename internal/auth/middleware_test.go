package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevoker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]bool{}
	}
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], f.err
}

// protectedRouter echoes the identity AuthMiddleware put on the context.
func protectedRouter(revoker Revoker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret, revoker), func(c *gin.Context) {
		uid, _ := GetUserID(c)
		tokenID, exp, _ := CurrentToken(c)
		c.JSON(http.StatusOK, gin.H{"uid": uid, "token_id": tokenID, "has_expiry": !exp.IsZero()})
	})
	return r
}

func get(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_RejectsBadCredentials(t *testing.T) {
	refresh, err := GenerateRefreshToken("owner-7", "o@example.com", RoleOwner, testSecret)
	require.NoError(t, err)
	otherSecret, err := GenerateAccessToken("owner-7", "o@example.com", RoleOwner, "admin-secret")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "no header", header: "", wantCode: "unauthenticated"},
		{name: "basic scheme", header: "Basic b3duZXI6cHc=", wantCode: "unauthenticated"},
		{name: "bearer without token", header: "Bearer   ", wantCode: "unauthenticated"},
		{name: "garbage", header: "Bearer not.a.jwt", wantCode: "invalid_token"},
		{name: "signed with another secret", header: "Bearer " + otherSecret, wantCode: "invalid_token"},
		{name: "refresh token", header: "Bearer " + refresh, wantCode: "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(protectedRouter(nil), tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
		})
	}
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	token, err := GenerateAccessToken("owner-7", "o@example.com", RoleOwner, testSecret)
	require.NoError(t, err)
	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	w := get(protectedRouter(&fakeRevoker{}), "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"owner-7","token_id":"`+claims.ID+`","has_expiry":true}`, w.Body.String())
}

func TestAuthMiddleware_Denylist(t *testing.T) {
	token, err := GenerateAccessToken("owner-7", "o@example.com", RoleOwner, testSecret)
	require.NoError(t, err)
	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	revoked := &fakeRevoker{}
	require.NoError(t, revoked.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	tests := []struct {
		name       string
		revoker    Revoker
		wantStatus int
		wantCode   string
	}{
		{name: "revoked", revoker: revoked, wantStatus: http.StatusUnauthorized, wantCode: "token_revoked"},
		{name: "lookup fails", revoker: &fakeRevoker{err: errors.New("redis down")}, wantStatus: http.StatusServiceUnavailable, wantCode: "unavailable"},
		{name: "other token revoked", revoker: &fakeRevoker{revoked: map[string]bool{"other": true}}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(protectedRouter(tt.revoker), "Bearer "+token)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		role       any
		wantStatus int
	}{
		{name: "admin", role: RoleAdmin, wantStatus: http.StatusOK},
		{name: "owner", role: RoleOwner, wantStatus: http.StatusForbidden},
		{name: "unset", role: nil, wantStatus: http.StatusUnauthorized},
		{name: "empty", role: "", wantStatus: http.StatusUnauthorized},
		{name: "not a string", role: 7, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", func(c *gin.Context) {
				if tt.role != nil {
					c.Set(ctxUserRole, tt.role)
				}
			}, RequireRole(RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCurrentToken_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	id, exp, ok := CurrentToken(c)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.True(t, exp.IsZero())

	uid, ok := GetUserID(c)
	assert.False(t, ok)
	assert.Empty(t, uid)
}
