package api

import (
	"errors"
	"net/http"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler holds the template service dependency.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// --- DTOs ---

type TemplateElementRequest struct {
	CatalogID string   `json:"catalogId" binding:"required"`
	Position  int      `json:"position"`
	Sets      *int     `json:"sets"`
	Reps      *int     `json:"reps"`
	Quantity  *float64 `json:"quantity"`
	Unit      string   `json:"unit"`
	Notes     string   `json:"notes"`
}

type CreateTemplateRequest struct {
	Kind       string                   `json:"kind" binding:"required,oneof=workout meal"`
	Title      string                   `json:"title" binding:"required"`
	Goals      []string                 `json:"goals"`
	Tags       []string                 `json:"tags"`
	Equipment  string                   `json:"equipment" binding:"omitempty,oneof=bodyweight dumbbells full_gym"`
	Difficulty string                   `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Elements   []TemplateElementRequest `json:"elements" binding:"required,min=1"`
}

// --- Handler Methods ---

// CreateTemplate stores a user-authored template.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	elements := make([]domain.TemplateElement, 0, len(req.Elements))
	for _, el := range req.Elements {
		catalogID, err := primitive.ObjectIDFromHex(el.CatalogID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid catalog ID format: "+el.CatalogID)
			return
		}
		elements = append(elements, domain.TemplateElement{
			ID:        primitive.NewObjectID(),
			CatalogID: catalogID,
			Position:  el.Position,
			Sets:      el.Sets,
			Reps:      el.Reps,
			Quantity:  el.Quantity,
			Unit:      el.Unit,
			Notes:     el.Notes,
		})
	}

	template := &domain.Template{
		Kind:       domain.TemplateKind(req.Kind),
		Title:      req.Title,
		Goals:      req.Goals,
		Tags:       req.Tags,
		Equipment:  domain.EquipmentLevel(req.Equipment),
		Difficulty: domain.ExperienceLevel(req.Difficulty),
		Elements:   elements,
	}

	created, err := h.templateService.CreateTemplate(c.Request.Context(), userID, template)
	if err != nil {
		if errors.Is(err, service.ErrTemplateValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListTemplates returns the templates visible to the user for a kind
// (public plus their own). Defaults to workout templates.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	kind := domain.TemplateKind(c.Query("kind"))
	templates, err := h.templateService.ListVisible(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetTemplate fetches one template by id.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	if _, err := getUserIDFromContext(c); err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	templateID, ok := parseIDParam(c, "templateId")
	if !ok {
		return
	}

	template, err := h.templateService.GetTemplate(c.Request.Context(), templateID)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch template")
		return
	}
	c.JSON(http.StatusOK, template)
}
