package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

// TransitionStore abstracts the persistence needed to move an application
// through the pipeline.
type TransitionStore interface {
	FindByID(ctx context.Context, userID, id string) (*models.Application, error)
	Transition(ctx context.Context, userID, id string, newStatus models.Status, notes *string) (*models.TransitionRecord, error)
	ListHistory(ctx context.Context, userID, applicationID string) ([]models.TransitionRecord, error)
}

// PointDispatcher delivers gamification events for asynchronous processing.
type PointDispatcher interface {
	Dispatch(event models.PointEvent)
}

// TransitionService applies status changes to applications. Any recognised
// status can follow any other; history keeps the full picture, so the service
// validates the target status rather than policing the path taken.
type TransitionService struct {
	store      TransitionStore
	cache      *CacheService
	dispatcher PointDispatcher
	pipeline   config.PipelineConfig
	points     config.GamificationConfig
	logger     *zap.Logger
}

// NewTransitionService constructs a TransitionService.
func NewTransitionService(store TransitionStore, cache *CacheService, dispatcher PointDispatcher, pipeline config.PipelineConfig, points config.GamificationConfig, logger *zap.Logger) *TransitionService {
	return &TransitionService{
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		points:     points,
		logger:     logger,
	}
}

// validStatus reports whether the status is part of the recognised enum.
// Withdrawn only counts when the pipeline enables it.
func (s *TransitionService) validStatus(status models.Status) bool {
	for _, known := range models.PipelineStatuses {
		if status == known {
			return true
		}
	}
	return status == models.StatusWithdrawn && s.pipeline.EnableWithdrawn
}

// ChangeStatus moves an application to newStatus and appends the history
// record. An unrecognised status fails without touching stored state.
func (s *TransitionService) ChangeStatus(ctx context.Context, userID, applicationID string, newStatus models.Status, notes *string) (*models.TransitionRecord, error) {
	if !s.validStatus(newStatus) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("unrecognised status %q", newStatus))
	}

	if s.pipeline.GuardTerminal {
		current, err := s.store.FindByID(ctx, userID, applicationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load application")
		}
		if current.Status.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("application is closed as %s", current.Status))
		}
	}

	record, err := s.store.Transition(ctx, userID, applicationID, newStatus, notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "change status")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, analyticsCachePattern(userID)); err != nil {
			s.logger.Warn("analytics cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		points := s.points.PointsStatusChanged
		reason := "status_changed"
		if newStatus == models.StatusOffer {
			points += s.points.PointsOfferReceived
			reason = "offer_received"
		}
		s.dispatcher.Dispatch(models.PointEvent{
			UserID:        userID,
			Points:        points,
			Reason:        reason,
			ReferenceType: "application",
			ReferenceID:   applicationID,
		})
	}

	s.logger.Info("application status changed",
		zap.String("application_id", applicationID),
		zap.String("new_status", string(newStatus)))
	return record, nil
}

// History returns the append-only status log of one application, oldest first.
func (s *TransitionService) History(ctx context.Context, userID, applicationID string) ([]models.TransitionRecord, error) {
	records, err := s.store.ListHistory(ctx, userID, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list history")
	}
	return records, nil
}
