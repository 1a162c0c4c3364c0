package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
	"github.com/applyquest/applyquest-api/pkg/response"
)

type userService interface {
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.User, error)
}

type gamificationService interface {
	Stats(ctx context.Context, userID string) (*models.User, int, error)
	History(ctx context.Context, userID string, limit int) ([]models.PointHistory, error)
}

// UserHandler exposes profile and gamification endpoints.
type UserHandler struct {
	users        userService
	gamification gamificationService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users userService, gamification gamificationService) *UserHandler {
	return &UserHandler{users: users, gamification: gamification}
}

// Profile godoc
// @Summary Get the current user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /user/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.users.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /user/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid profile payload"))
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Stats godoc
// @Summary Gamification counters for the current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /user/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, next, err := h.gamification.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UserStatsResponse{
		Points:          user.Points,
		Level:           user.Level,
		LevelName:       user.LevelName,
		NextLevelPoints: next,
		CurrentStreak:   user.CurrentStreak,
		LongestStreak:   user.LongestStreak,
	}, nil)
}

// PointHistory godoc
// @Summary Recent point awards for the current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} response.Envelope
// @Router /user/points [get]
func (h *UserHandler) PointHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.gamification.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
