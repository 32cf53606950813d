package mealplan

import (
	"net/http"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	generator Generator
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// @Summary      Generate a meal plan
// @Description  Generates a one-day plan for a calorie target without storing it.
// @Tags         meal-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body mealplan.GenerateRequest true "Calorie target and goal"
// @Success      200 {object} mealplan.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /meal-plans/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: "validation_error"})
		return
	}

	plan, err := h.generator.Generate(c.Request.Context(), req.Calories, req.Goal)
	if err != nil {
		api.RespondError(c, err, "Failed to generate meal plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}
