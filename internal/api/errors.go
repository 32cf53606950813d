package api

import (
	"errors"
	"net/http"

	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

// Error taxonomy shared by every package. Callers wrap these with
// fmt.Errorf("%w: ...") and handlers map them with RespondError.
var (
	ErrNotFound            = errors.New("not found")
	ErrExhausted           = errors.New("exhausted")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrValidation          = errors.New("validation error")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrSubscriptionExpired = errors.New("subscription expired")
)

type kind struct {
	err    error
	status int
	code   string
}

var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrExhausted, http.StatusConflict, "exhausted"},
	{ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{ErrValidation, http.StatusBadRequest, "validation_error"},
	{ErrGenerationFailed, http.StatusBadGateway, "generation_failed"},
	{ErrSubscriptionExpired, http.StatusForbidden, "subscription_expired"},
}

// StatusFor returns the HTTP status and machine code for err.
// Unknown errors map to 500.
func StatusFor(err error) (int, string) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// RespondError writes err as an ErrorResponse. Internal errors are logged and
// replaced with fallback so store details never reach the client.
func RespondError(c *gin.Context, err error, fallback string) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, "error", err, "path", c.FullPath())
		c.JSON(status, ErrorResponse{Error: fallback, Code: code})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
