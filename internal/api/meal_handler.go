package api

import (
	"net/http"
	"time"

	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// MealHandler holds the meal service dependency.
type MealHandler struct {
	mealService service.MealService
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(mealService service.MealService) *MealHandler {
	return &MealHandler{mealService: mealService}
}

// --- DTOs ---

type CreateMealPlanRequest struct {
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"startDate" binding:"required"` // "2006-01-02"
}

// --- Handler Methods ---

// CreateMealPlan starts a new meal plan for the authenticated user.
func (h *MealHandler) CreateMealPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	startDate, err := time.Parse(engine.DayKeyLayout, req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid startDate format, expected YYYY-MM-DD")
		return
	}

	plan, err := h.mealService.CreateMealPlan(c.Request.Context(), userID, req.Title, startDate)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPlanToResponse(plan))
}

// GetMealPlans lists the user's meal plans.
func (h *MealHandler) GetMealPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plans, err := h.mealService.GetMealPlans(c.Request.Context(), userID)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	resp := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, mapPlanToResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetMealRange resolves every calendar date in [from, to]. Unlike the workout
// side, every day is present; the cadence only flips the variant tag.
func (h *MealHandler) GetMealRange(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	resolutions, err := h.mealService.FetchMealRange(c.Request.Context(), userID, planID, from, to)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	resp := make([]DayResolutionResponse, 0, len(resolutions))
	for i := range resolutions {
		resp = append(resp, mapResolutionToResponse(&resolutions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetMealDay resolves a single calendar date.
func (h *MealHandler) GetMealDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	resolution, err := h.mealService.FetchResolvedForDate(c.Request.Context(), userID, planID, date)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapResolutionToResponse(resolution))
}

// CommitMealDay stores the minimal override set for one date's meal list.
func (h *MealHandler) CommitMealDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	var req CommitDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	desired, err := mapDesiredElements(req.Elements)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.mealService.CommitDay(c.Request.Context(), userID, planID, date, desired); err != nil {
		respondPlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PinMealTemplate freezes the plan's eating-mode template.
func (h *MealHandler) PinMealTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	pinned, err := h.mealService.PinTemplate(c.Request.Context(), userID, planID)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, PinTemplatesResponse{PinnedTemplates: mapPinnedTemplates(pinned)})
}
