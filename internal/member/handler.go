package member

import (
	"net/http"
	"strings"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func ownerID(c *gin.Context) (string, bool) {
	id, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
	}
	return id, ok
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
}

// @Summary      Register a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body member.RegisterRequest true "Member payload"
// @Success      201 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members [post]
func (h *Handler) Register(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.service.Register(c.Request.Context(), owner, req)
	if err != nil {
		api.RespondError(c, err, "Failed to register member")
		return
	}

	c.JSON(http.StatusCreated, m)
}

// @Summary      List members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "active or expired"
// @Param        q      query string false "Name search"
// @Success      200 {array} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members [get]
func (h *Handler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	members, err := h.service.List(c.Request.Context(), owner, filter)
	if err != nil {
		api.RespondError(c, err, "Failed to fetch members")
		return
	}

	c.JSON(http.StatusOK, members)
}

// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} member.Member
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to fetch member")
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Update member details
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body member.UpdateRequest true "Fields to change"
// @Success      200 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.service.Update(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		api.RespondError(c, err, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Renew a membership
// @Description  Starts a new window from now. Debt handling depends on RENEWAL_DEBT_POLICY.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body member.RenewRequest true "New period and classes"
// @Success      200 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.service.Renew(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		api.RespondError(c, err, "Failed to renew member")
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Apply a payment
// @Description  Applies min(amount, debt). Repeating a request with the same Idempotency-Key is a no-op.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        Idempotency-Key header string false "Client generated key"
// @Param        request body member.PaymentRequest true "Payment amount"
// @Success      200 {object} member.PaymentResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id}/payments [post]
func (h *Handler) ApplyPayment(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if len(key) > 128 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Idempotency-Key too long", Code: "validation_error"})
		return
	}

	result, err := h.service.ApplyPayment(c.Request.Context(), owner, c.Param("id"), req.Amount, key)
	if err != nil {
		api.RespondError(c, err, "Failed to apply payment")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Delete a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /members/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		api.RespondError(c, err, "Failed to delete member")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Member deleted"})
}

// @Summary      Generate a meal plan for a member
// @Description  Replaces the stored plan with a new one built for the member's daily calories.
// @Tags         members,meal-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Param        request body member.MealPlanRequest false "Goal"
// @Success      200 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /members/{id}/meal-plan [post]
func (h *Handler) GenerateMealPlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req MealPlanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	m, err := h.service.GenerateMealPlan(c.Request.Context(), owner, c.Param("id"), req.Goal)
	if err != nil {
		api.RespondError(c, err, "Failed to generate meal plan")
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Gym dashboard
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} member.Dashboard
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	d, err := h.service.Dashboard(c.Request.Context(), owner)
	if err != nil {
		api.RespondError(c, err, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, d)
}
