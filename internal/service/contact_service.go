package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

// ContactStore abstracts contact persistence.
type ContactStore interface {
	List(ctx context.Context, userID string, filter models.ContactFilter) ([]models.NetworkContact, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.NetworkContact, error)
	Create(ctx context.Context, contact *models.NetworkContact) error
	Update(ctx context.Context, contact *models.NetworkContact) error
	Delete(ctx context.Context, userID, id string) error
}

// ContactService manages networking contacts.
type ContactService struct {
	store      ContactStore
	dispatcher PointDispatcher
	points     config.GamificationConfig
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewContactService constructs a ContactService.
func NewContactService(store ContactStore, dispatcher PointDispatcher, points config.GamificationConfig, logger *zap.Logger) *ContactService {
	return &ContactService{
		store:      store,
		dispatcher: dispatcher,
		points:     points,
		validate:   validator.New(),
		logger:     logger,
	}
}

// List returns a page of the user's contacts.
func (s *ContactService) List(ctx context.Context, userID string, filter models.ContactFilter) ([]models.NetworkContact, int, error) {
	contacts, total, err := s.store.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list contacts")
	}
	return contacts, total, nil
}

// Get fetches one contact.
func (s *ContactService) Get(ctx context.Context, userID, id string) (*models.NetworkContact, error) {
	contact, err := s.store.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "get contact")
	}
	return contact, nil
}

// Create stores a new contact and awards the contact points.
func (s *ContactService) Create(ctx context.Context, userID string, req dto.CreateContactRequest) (*models.NetworkContact, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	contact := &models.NetworkContact{
		UserID:             userID,
		Name:               req.Name,
		Email:              req.Email,
		Company:            req.Company,
		RelationshipType:   req.RelationshipType,
		ConnectionStrength: req.ConnectionStrength,
		Notes:              req.Notes,
		ApplicationID:      req.ApplicationID,
	}
	if req.LastContactDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.LastContactDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "last_contact_date must be YYYY-MM-DD")
		}
		contact.LastContactDate = &parsed
	}

	if err := s.store.Create(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create contact")
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(models.PointEvent{
			UserID:        userID,
			Points:        s.points.PointsContactAdded,
			Reason:        "contact_added",
			ReferenceType: "contact",
			ReferenceID:   contact.ID,
		})
	}
	s.logger.Info("contact created", zap.String("contact_id", contact.ID))
	return contact, nil
}

// Update edits an existing contact.
func (s *ContactService) Update(ctx context.Context, userID, id string, req dto.UpdateContactRequest) (*models.NetworkContact, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = req.Email
	}
	if req.Company != nil {
		contact.Company = req.Company
	}
	if req.RelationshipType != nil {
		contact.RelationshipType = req.RelationshipType
	}
	if req.ConnectionStrength != nil {
		contact.ConnectionStrength = *req.ConnectionStrength
	}
	if req.LastContactDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.LastContactDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "last_contact_date must be YYYY-MM-DD")
		}
		contact.LastContactDate = &parsed
	}
	if req.Notes != nil {
		contact.Notes = req.Notes
	}
	if req.ApplicationID != nil {
		contact.ApplicationID = req.ApplicationID
	}

	if err := s.store.Update(ctx, contact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update contact")
	}
	return contact, nil
}

// Delete removes a contact and detaches applications that referenced it.
func (s *ContactService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete contact")
	}
	return nil
}
