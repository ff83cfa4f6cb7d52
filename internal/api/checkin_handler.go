package api

import (
	"errors"
	"net/http"
	"time"

	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckinHandler holds the check-in service dependency.
type CheckinHandler struct {
	checkinService service.CheckinService
}

// NewCheckinHandler creates a new CheckinHandler.
func NewCheckinHandler(checkinService service.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkinService: checkinService}
}

// --- DTOs ---

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmCheckinRequest struct {
	Date        string   `json:"date"` // "2006-01-02", defaults to today
	ObjectKey   string   `json:"objectKey" binding:"required"`
	FileName    string   `json:"fileName"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	Weight      *float64 `json:"weight"`
	Notes       string   `json:"notes"`
}

// --- Handler Methods ---

// RequestUploadURL hands the client a presigned PUT URL for a progress photo.
func (h *CheckinHandler) RequestUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.checkinService.RequestUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmCheckin records a check-in after the client uploaded its photo.
func (h *CheckinHandler) ConfirmCheckin(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req ConfirmCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(engine.DayKeyLayout, req.Date)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
	}

	checkin, err := h.checkinService.ConfirmCheckin(c.Request.Context(), userID, date,
		req.ObjectKey, req.FileName, req.ContentType, req.Size, req.Weight, req.Notes)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to record check-in")
		return
	}
	c.JSON(http.StatusCreated, checkin)
}

// ListCheckins returns the user's check-ins in [from, to] with photo URLs.
func (h *CheckinHandler) ListCheckins(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
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

	checkins, err := h.checkinService.ListCheckins(c.Request.Context(), userID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list check-ins")
		return
	}
	c.JSON(http.StatusOK, checkins)
}
