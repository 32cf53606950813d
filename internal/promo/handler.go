package promo

import (
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

// @Summary      Create a promo code
// @Description  Admin-only: create a promo code. A random code is generated when none is given.
// @Tags         admin,promo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body promo.CreateRequest true "Promo code payload"
// @Success      201 {object} promo.Code
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/promo-codes [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	code, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to create promo code")
		return
	}

	c.JSON(http.StatusCreated, code)
}

// @Summary      List promo codes
// @Tags         admin,promo
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} promo.Code
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/promo-codes [get]
func (h *Handler) List(c *gin.Context) {
	codes, err := h.service.List(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to fetch promo codes")
		return
	}

	c.JSON(http.StatusOK, codes)
}

// @Summary      Delete an unused promo code
// @Tags         admin,promo
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Promo code ID"
// @Success      200 {object} api.MessageResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/promo-codes/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.RespondError(c, err, "Failed to delete promo code")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Promo code deleted"})
}
