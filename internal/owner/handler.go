package owner

import (
	"errors"
	"net/http"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Signup godoc
// @Summary      Create a gym owner account
// @Description  Redeems a promo code, opens the subscription window and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      owner.SignupRequest  true  "Signup data"
// @Success      201      {object}  owner.AuthResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	resp, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered", Code: "email_exists"})
			return
		}
		api.RespondError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Login gym owner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      owner.LoginRequest  true  "Credentials"
// @Success      200      {object}  owner.AuthResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		api.RespondError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      owner.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  owner.RefreshResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refreshToken is required", Code: "validation_error"})
		return
	}

	accessToken, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, api.ErrNotFound):
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		default:
			api.RespondError(c, err, "Failed to refresh token")
		}
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// GetMe godoc
// @Summary      Current gym owner
// @Description  Returns the profile with derived subscription status. Reachable after expiry.
// @Tags         owner
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  owner.Owner
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	o, err := h.service.Me(c.Request.Context(), uid)
	if err != nil {
		api.RespondError(c, err, "Failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, o)
}

// UpdateSettings godoc
// @Summary      Update gym settings
// @Tags         owner
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      owner.SettingsRequest  true  "Gym name and pricing"
// @Success      200      {object}  owner.Owner
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Router       /settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	o, err := h.service.UpdateSettings(c.Request.Context(), uid, req)
	if err != nil {
		api.RespondError(c, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, o)
}

// ListNotifications godoc
// @Summary      Notifications inbox
// @Tags         owner
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   owner.Notification
// @Failure      403  {object}  api.ErrorResponse
// @Router       /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	notifications, err := h.service.Notifications(c.Request.Context(), uid)
	if err != nil {
		api.RespondError(c, err, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead godoc
// @Summary      Mark a notification as read
// @Tags         owner
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.service.MarkNotificationRead(c.Request.Context(), uid, c.Param("id")); err != nil {
		api.RespondError(c, err, "Failed to update notification")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Notification marked as read"})
}
