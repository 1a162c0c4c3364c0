package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
	"github.com/applyquest/applyquest-api/pkg/response"
)

type contactService interface {
	List(ctx context.Context, userID string, filter models.ContactFilter) ([]models.NetworkContact, int, error)
	Get(ctx context.Context, userID, id string) (*models.NetworkContact, error)
	Create(ctx context.Context, userID string, req dto.CreateContactRequest) (*models.NetworkContact, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateContactRequest) (*models.NetworkContact, error)
	Delete(ctx context.Context, userID, id string) error
}

// ContactHandler wires networking contacts to HTTP endpoints.
type ContactHandler struct {
	service contactService
}

// NewContactHandler constructs the handler.
func NewContactHandler(service contactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// List godoc
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search name or company"
// @Param applicationId query string false "Filter by linked application"
// @Success 200 {object} response.Envelope
// @Router /network [get]
func (h *ContactHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ContactFilter{
		Search:        strings.TrimSpace(c.Query("search")),
		ApplicationID: strings.TrimSpace(c.Query("applicationId")),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	contacts, total, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, contacts, pagination)
}

// Get godoc
// @Summary Get one contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 200 {object} response.Envelope
// @Router /network/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	contact, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

// Create godoc
// @Summary Create a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateContactRequest true "Contact"
// @Success 201 {object} response.Envelope
// @Router /network [post]
func (h *ContactHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid contact payload"))
		return
	}
	contact, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contact)
}

// Update godoc
// @Summary Update a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Param payload body dto.UpdateContactRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /network/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid contact payload"))
		return
	}
	contact, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

// Delete godoc
// @Summary Delete a contact
// @Tags Contacts
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 204
// @Router /network/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
