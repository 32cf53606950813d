package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID       = "user_id"
	ctxUserEmail    = "user_email"
	ctxUserRole     = "user_role"
	ctxTokenID      = "token_id"
	ctxTokenExpires = "token_expires"
)

func reject(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg, Code: code})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware validates the bearer access token. revoker may be nil when
// the surface has no denylist.
func AuthMiddleware(accessTokenSecret string, revoker Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, http.StatusUnauthorized, "bearer token required", "unauthenticated")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if errors.Is(err, ErrTokenExpired) {
			reject(c, http.StatusUnauthorized, ErrTokenExpired.Error(), "token_expired")
			return
		}
		if err != nil {
			reject(c, http.StatusUnauthorized, ErrInvalidToken.Error(), "invalid_token")
			return
		}
		if claims.TokenType != TokenTypeAccess {
			reject(c, http.StatusUnauthorized, ErrInvalidTokenType.Error(), "invalid_token")
			return
		}

		if revoker != nil {
			revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.WithError(err).Error("denylist lookup failed", "token_id", claims.ID)
				reject(c, http.StatusServiceUnavailable, "session check unavailable", "unavailable")
				return
			}
			if revoked {
				reject(c, http.StatusUnauthorized, ErrTokenRevoked.Error(), "token_revoked")
				return
			}
		}

		c.Set(ctxUserID, claims.UID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExpires, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware. A request without a role was
// never authenticated and gets 401; a different role gets 403.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxUserRole)
		if !ok {
			reject(c, http.StatusUnauthorized, "not authenticated", "unauthenticated")
			return
		}
		if s, _ := role.(string); s != requiredRole {
			if s == "" {
				reject(c, http.StatusUnauthorized, "not authenticated", "unauthenticated")
				return
			}
			reject(c, http.StatusForbidden, "role "+requiredRole+" required", "forbidden")
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}

// CurrentToken returns the id and expiry of the access token on the request.
func CurrentToken(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(ctxTokenID)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(ctxTokenExpires), true
}
