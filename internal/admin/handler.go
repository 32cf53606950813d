package admin

import (
	"errors"
	"net/http"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body admin.LoginRequest true "Admin credentials"
// @Success      200 {object} admin.LoginResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /admin/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		api.RespondError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: token})
}

// @Summary      List gym owners
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} owner.Owner
// @Failure      401 {object} api.ErrorResponse
// @Router       /admin/owners [get]
func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.service.ListOwners(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to fetch owners")
		return
	}

	c.JSON(http.StatusOK, owners)
}

// @Summary      Edit an owner's subscription window
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uid path string true "Owner UID"
// @Param        request body admin.SubscriptionRequest true "New window"
// @Success      200 {object} owner.Owner
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/owners/{uid}/subscription [put]
func (h *Handler) UpdateSubscription(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	o, err := h.service.UpdateSubscription(c.Request.Context(), c.Param("uid"), req)
	if err != nil {
		api.RespondError(c, err, "Failed to update subscription")
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      Send a notification
// @Description  Sends to one owner when ownerUid is set, otherwise to every owner.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body admin.NotificationRequest true "Message"
// @Success      201 {object} admin.NotificationResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/notifications [post]
func (h *Handler) SendNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	n, err := h.service.SendNotification(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to send notification")
		return
	}

	c.JSON(http.StatusCreated, NotificationResult{Recipients: n})
}
