package owner

import (
	"context"
	"errors"
	"net/http"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/calc"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/gin-gonic/gin"
)

// StatusChecker reports an owner's derived subscription status.
type StatusChecker interface {
	Status(ctx context.Context, uid string) (calc.Status, error)
}

// SessionGate rejects requests from owners whose subscription has ended.
// The presented access token is revoked so it cannot be reused until it
// expires. It must run after auth.AuthMiddleware.
func SessionGate(checker StatusChecker, revoker auth.Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := auth.GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
			return
		}

		status, err := checker.Status(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Account not found"})
				return
			}
			logger.WithError(err).Error("session status check failed", "uid", uid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to check subscription"})
			return
		}

		if status == calc.StatusExpired {
			if tokenID, expiresAt, ok := auth.CurrentToken(c); ok && revoker != nil {
				if err := revoker.Revoke(c.Request.Context(), tokenID, expiresAt); err != nil {
					logger.WithError(err).Error("failed to revoke expired session", "uid", uid, "token_id", tokenID)
				} else {
					metrics.RecordSessionRevoked()
				}
			}
			logger.Info("session ended: subscription expired", "uid", uid)
			api.RespondError(c, api.ErrSubscriptionExpired, "Subscription expired")
			c.Abort()
			return
		}

		c.Next()
	}
}
