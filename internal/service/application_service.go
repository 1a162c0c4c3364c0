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

// ApplicationStore abstracts application persistence.
type ApplicationStore interface {
	List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error)
	ListAll(ctx context.Context, userID string) ([]models.Application, error)
	FindByID(ctx context.Context, userID, id string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, userID, id string) error
}

// ApplicationService owns the application lifecycle apart from status
// changes, which belong to the TransitionService.
type ApplicationService struct {
	store      ApplicationStore
	cache      *CacheService
	dispatcher PointDispatcher
	points     config.GamificationConfig
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(store ApplicationStore, cache *CacheService, dispatcher PointDispatcher, points config.GamificationConfig, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		points:     points,
		validate:   validator.New(),
		logger:     logger,
	}
}

// List returns a page of the user's applications.
func (s *ApplicationService) List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error) {
	apps, total, err := s.store.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list applications")
	}
	return apps, total, nil
}

// Get fetches one application.
func (s *ApplicationService) Get(ctx context.Context, userID, id string) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "get application")
	}
	return app, nil
}

// Create stores a new application. The status always starts as Applied no
// matter what the client sends; the initial history row is written with it.
func (s *ApplicationService) Create(ctx context.Context, userID string, req dto.CreateApplicationRequest) (*models.Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	appliedDate := time.Now().UTC()
	if req.AppliedDate != "" {
		parsed, err := time.Parse("2006-01-02", req.AppliedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "applied_date must be YYYY-MM-DD")
		}
		appliedDate = parsed
	}

	german := models.GermanNone
	if req.GermanRequirement != "" {
		german = models.GermanLevel(req.GermanRequirement)
	}

	app := &models.Application{
		UserID:            userID,
		CompanyName:       req.CompanyName,
		PositionTitle:     req.PositionTitle,
		Location:          req.Location,
		JobURL:            req.JobURL,
		SalaryRange:       req.SalaryRange,
		TechStack:         req.TechStack,
		Status:            models.StatusApplied,
		VisaSponsorship:   req.VisaSponsorship,
		GermanRequirement: german,
		RelocationSupport: req.RelocationSupport,
		JobBoardSource:    req.JobBoardSource,
		PriorityStars:     req.PriorityStars,
		Notes:             req.Notes,
		AppliedDate:       appliedDate,
		ReferralContactID: req.ReferralContactID,
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create application")
	}

	s.invalidate(ctx, userID)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(models.PointEvent{
			UserID:        userID,
			Points:        s.points.PointsApplicationCreated,
			Reason:        "application_created",
			ReferenceType: "application",
			ReferenceID:   app.ID,
		})
	}

	s.logger.Info("application created",
		zap.String("application_id", app.ID),
		zap.String("company", app.CompanyName))
	return app, nil
}

// Update edits non-status fields of an application.
func (s *ApplicationService) Update(ctx context.Context, userID, id string, req dto.UpdateApplicationRequest) (*models.Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		app.CompanyName = *req.CompanyName
	}
	if req.PositionTitle != nil {
		app.PositionTitle = *req.PositionTitle
	}
	if req.Location != nil {
		app.Location = *req.Location
	}
	if req.JobURL != nil {
		app.JobURL = req.JobURL
	}
	if req.SalaryRange != nil {
		app.SalaryRange = req.SalaryRange
	}
	if req.TechStack != nil {
		app.TechStack = req.TechStack
	}
	if req.VisaSponsorship != nil {
		app.VisaSponsorship = *req.VisaSponsorship
	}
	if req.GermanRequirement != nil {
		app.GermanRequirement = models.GermanLevel(*req.GermanRequirement)
	}
	if req.RelocationSupport != nil {
		app.RelocationSupport = *req.RelocationSupport
	}
	if req.JobBoardSource != nil {
		app.JobBoardSource = req.JobBoardSource
	}
	if req.PriorityStars != nil {
		app.PriorityStars = *req.PriorityStars
	}
	if req.Notes != nil {
		app.Notes = req.Notes
	}
	if req.AppliedDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.AppliedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "applied_date must be YYYY-MM-DD")
		}
		app.AppliedDate = parsed
	}
	if req.ReferralContactID != nil {
		app.ReferralContactID = req.ReferralContactID
	}

	if err := s.store.Update(ctx, app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update application")
	}

	s.invalidate(ctx, userID)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(models.PointEvent{
			UserID:        userID,
			Points:        s.points.PointsApplicationUpdated,
			Reason:        "application_updated",
			ReferenceType: "application",
			ReferenceID:   app.ID,
		})
	}
	return app, nil
}

// Delete removes an application and its history.
func (s *ApplicationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete application")
	}
	s.invalidate(ctx, userID)
	s.logger.Info("application deleted", zap.String("application_id", id))
	return nil
}

func (s *ApplicationService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsCachePattern(userID)); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
