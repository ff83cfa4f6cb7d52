package api

import (
	"errors"
	"net/http"
	"time"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type CreatePlanRequest struct {
	Title     string `json:"title" binding:"required"`
	Goal      string `json:"goal"`
	StartDate string `json:"startDate" binding:"required"` // "2006-01-02"
}

type PlanResponse struct {
	ID              string            `json:"id"`
	Kind            string            `json:"kind"`
	Title           string            `json:"title"`
	Goal            string            `json:"goal,omitempty"`
	StartDate       string            `json:"startDate"`
	PinnedTemplates map[string]string `json:"pinnedTemplates,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// DesiredElementRequest is one entry of the final list the client wants for a
// day. templateElementId ties the entry back to its baseline source; omit it
// for brand-new additions.
type DesiredElementRequest struct {
	TemplateElementID *string  `json:"templateElementId"`
	CatalogID         string   `json:"catalogId" binding:"required"`
	Position          int      `json:"position"`
	Sets              *int     `json:"sets"`
	Reps              *int     `json:"reps"`
	Quantity          *float64 `json:"quantity"`
	Unit              string   `json:"unit"`
	Notes             string   `json:"notes"`
}

// CommitDayRequest carries the full desired list for one date. An empty list
// is a valid commit: it clears the day down to explicit removals.
type CommitDayRequest struct {
	Elements []DesiredElementRequest `json:"elements"`
}

type ResolvedElementResponse struct {
	ID                string   `json:"id"`
	CatalogID         string   `json:"catalogId"`
	Position          int      `json:"position"`
	Sets              *int     `json:"sets,omitempty"`
	Reps              *int     `json:"reps,omitempty"`
	Quantity          *float64 `json:"quantity,omitempty"`
	Unit              string   `json:"unit,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	FromOverride      bool     `json:"fromOverride"`
	TemplateElementID string   `json:"templateElementId,omitempty"`
}

type DayResolutionResponse struct {
	Date          string                    `json:"date"`
	Tag           string                    `json:"tag"`
	SlotIndex     *int                      `json:"slotIndex,omitempty"`
	TemplateID    string                    `json:"templateId,omitempty"`
	TemplateTitle string                    `json:"templateTitle,omitempty"`
	Elements      []ResolvedElementResponse `json:"elements"`
}

type PinTemplatesResponse struct {
	PinnedTemplates map[string]string `json:"pinnedTemplates"`
}

func mapPlanToResponse(p *domain.Plan) PlanResponse {
	resp := PlanResponse{
		ID:        p.ID.Hex(),
		Kind:      string(p.Kind),
		Title:     p.Title,
		Goal:      p.Goal,
		StartDate: engine.DayKey(p.StartDate),
		CreatedAt: p.CreatedAt,
	}
	if len(p.PinnedTemplates) > 0 {
		resp.PinnedTemplates = mapPinnedTemplates(p.PinnedTemplates)
	}
	return resp
}

func mapPinnedTemplates(pinned map[string]primitive.ObjectID) map[string]string {
	out := make(map[string]string, len(pinned))
	for tag, id := range pinned {
		out[tag] = id.Hex()
	}
	return out
}

func mapResolutionToResponse(r *service.DayResolution) DayResolutionResponse {
	resp := DayResolutionResponse{
		Date:          engine.DayKey(r.Date),
		Tag:           r.Tag,
		SlotIndex:     r.SlotIndex,
		TemplateTitle: r.TemplateTitle,
		Elements:      make([]ResolvedElementResponse, 0, len(r.Elements)),
	}
	if r.TemplateID != primitive.NilObjectID {
		resp.TemplateID = r.TemplateID.Hex()
	}
	for _, el := range r.Elements {
		out := ResolvedElementResponse{
			ID:           el.ID.String(),
			CatalogID:    el.CatalogID.Hex(),
			Position:     el.Position,
			Sets:         el.Sets,
			Reps:         el.Reps,
			Quantity:     el.Quantity,
			Unit:         el.Unit,
			Notes:        el.Notes,
			FromOverride: el.FromOverride,
		}
		if el.TemplateElementID != nil {
			out.TemplateElementID = el.TemplateElementID.Hex()
		}
		resp.Elements = append(resp.Elements, out)
	}
	return resp
}

func mapDesiredElements(reqs []DesiredElementRequest) ([]engine.DesiredElement, error) {
	desired := make([]engine.DesiredElement, 0, len(reqs))
	for _, req := range reqs {
		catalogID, err := primitive.ObjectIDFromHex(req.CatalogID)
		if err != nil {
			return nil, errors.New("invalid catalog ID format: " + req.CatalogID)
		}
		d := engine.DesiredElement{
			CatalogID: catalogID,
			Position:  req.Position,
			Sets:      req.Sets,
			Reps:      req.Reps,
			Quantity:  req.Quantity,
			Unit:      req.Unit,
			Notes:     req.Notes,
		}
		if req.TemplateElementID != nil && *req.TemplateElementID != "" {
			teID, err := primitive.ObjectIDFromHex(*req.TemplateElementID)
			if err != nil {
				return nil, errors.New("invalid template element ID format: " + *req.TemplateElementID)
			}
			d.TemplateElementID = &teID
		}
		desired = append(desired, d)
	}
	return desired, nil
}

// --- Shared helpers ---

// parseIDParam parses an ObjectID path parameter, aborting on failure.
func parseIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseDateParam parses a "2006-01-02" path parameter, aborting on failure.
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	date, err := time.Parse(engine.DayKeyLayout, c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// parseDateQuery parses a "2006-01-02" query parameter, aborting on failure.
func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		abortWithError(c, http.StatusBadRequest, "Missing required query parameter: "+name)
		return time.Time{}, false
	}
	date, err := time.Parse(engine.DayKeyLayout, raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// respondPlanError maps plan service errors onto HTTP status codes. Shared
// with the meal handler, whose service reuses the same error values.
func respondPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied), errors.Is(err, service.ErrOverrideNotOwned):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlanKindMismatch), errors.Is(err, service.ErrInvalidStartDate):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDayNotScheduled):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrMissingCatalogRef):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrMalformedElementID), errors.Is(err, engine.ErrUnknownIDPrefix):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An internal error occurred")
	}
}

// --- Handler Methods ---

// CreatePlan starts a new workout plan for the authenticated user.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	startDate, err := time.Parse(engine.DayKeyLayout, req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid startDate format, expected YYYY-MM-DD")
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, req.Title, req.Goal, startDate)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPlanToResponse(plan))
}

// GetPlans lists the user's workout plans.
func (h *PlanHandler) GetPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plans, err := h.planService.GetPlans(c.Request.Context(), userID)
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

// GetPlanRange resolves every scheduled training day in [from, to].
func (h *PlanHandler) GetPlanRange(c *gin.Context) {
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

	resolutions, err := h.planService.FetchPlanRange(c.Request.Context(), userID, planID, from, to)
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

// GetDay resolves a single date. Rest days answer 200 with a null body so
// clients can render "nothing scheduled" without special-casing an error.
func (h *PlanHandler) GetDay(c *gin.Context) {
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

	resolution, err := h.planService.FetchResolvedForDate(c.Request.Context(), userID, planID, date)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	if resolution == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, mapResolutionToResponse(resolution))
}

// EnsureDay resolves a date that must be a scheduled training day.
func (h *PlanHandler) EnsureDay(c *gin.Context) {
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

	resolution, err := h.planService.EnsureDayExists(c.Request.Context(), userID, planID, date)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapResolutionToResponse(resolution))
}

// CommitDay accepts the full desired element list for a date and stores the
// minimal override set that reproduces it.
func (h *PlanHandler) CommitDay(c *gin.Context) {
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

	if err := h.planService.CommitDay(c.Request.Context(), userID, planID, date, desired); err != nil {
		respondPlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveElement deletes one element by its encoded id. The id itself carries
// the plan or override scope, so the route is not nested under a plan.
func (h *PlanHandler) RemoveElement(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	elementID := c.Param("elementId")
	if err := h.planService.RemoveElement(c.Request.Context(), userID, elementID); err != nil {
		respondPlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PinTemplates freezes the plan's tag -> template assignment.
func (h *PlanHandler) PinTemplates(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	pinned, err := h.planService.PinTemplates(c.Request.Context(), userID, planID)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, PinTemplatesResponse{PinnedTemplates: mapPinnedTemplates(pinned)})
}
