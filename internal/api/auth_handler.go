package api

import (
	"errors"
	"net/http"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Goal        string `json:"goal,omitempty"`
	Equipment   string `json:"equipment,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Split       string `json:"split,omitempty"`
	CadenceDays int    `json:"cadenceDays,omitempty"`
	EatingMode  string `json:"eatingMode,omitempty"`
}

type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	Equipment   string `json:"equipment" binding:"omitempty,oneof=bodyweight dumbbells full_gym"`
	Experience  string `json:"experience" binding:"omitempty,oneof=beginner intermediate advanced"`
	Split       string `json:"split" binding:"omitempty,oneof=full_body upper_lower push_pull_legs"`
	CadenceDays int    `json:"cadenceDays" binding:"omitempty,min=3,max=6"`
	EatingMode  string `json:"eatingMode" binding:"omitempty,oneof=default training_day"`
}

func mapUserToResponse(u *domain.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Goal:        u.Goal,
		Equipment:   string(u.Equipment),
		Experience:  string(u.Experience),
		Split:       string(u.Split),
		CadenceDays: u.CadenceDays,
		EatingMode:  string(u.EatingMode),
	}
}

// --- Handler Methods ---

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, mapUserToResponse(user))
}

// Login authenticates and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: mapUserToResponse(user)})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// UpdateProfile writes the selector profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:        req.Name,
		Goal:        req.Goal,
		Equipment:   domain.EquipmentLevel(req.Equipment),
		Experience:  domain.ExperienceLevel(req.Experience),
		Split:       domain.TrainingSplit(req.Split),
		CadenceDays: req.CadenceDays,
		EatingMode:  domain.EatingMode(req.EatingMode),
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}
