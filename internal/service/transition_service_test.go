package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

type fakeTransitionStore struct {
	app         *models.Application
	transitions []models.TransitionRecord
	history     []models.TransitionRecord
	err         error
}

func (f *fakeTransitionStore) FindByID(ctx context.Context, userID, id string) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.app, nil
}

func (f *fakeTransitionStore) Transition(ctx context.Context, userID, id string, newStatus models.Status, notes *string) (*models.TransitionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	old := f.app.Status
	record := models.TransitionRecord{
		ID:            "h1",
		ApplicationID: id,
		OldStatus:     &old,
		NewStatus:     newStatus,
		Notes:         notes,
		ChangedAt:     time.Now().UTC(),
	}
	f.app.Status = newStatus
	f.transitions = append(f.transitions, record)
	return &record, nil
}

func (f *fakeTransitionStore) ListHistory(ctx context.Context, userID, applicationID string) ([]models.TransitionRecord, error) {
	return f.history, nil
}

type fakeDispatcher struct {
	events []models.PointEvent
}

func (f *fakeDispatcher) Dispatch(event models.PointEvent) {
	f.events = append(f.events, event)
}

func defaultPoints() config.GamificationConfig {
	return config.GamificationConfig{
		PointsApplicationCreated: 2,
		PointsApplicationUpdated: 1,
		PointsStatusChanged:      5,
		PointsOfferReceived:      25,
		PointsContactAdded:       3,
	}
}

func newTransitionService(store *fakeTransitionStore, dispatcher *fakeDispatcher, pipeline config.PipelineConfig) *TransitionService {
	return NewTransitionService(store, nil, dispatcher, pipeline, defaultPoints(), zap.NewNop())
}

func TestChangeStatusAppendsHistoryRecord(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusApplied}}
	dispatcher := &fakeDispatcher{}
	svc := newTransitionService(store, dispatcher, config.PipelineConfig{})

	record, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusReplied, nil)
	require.NoError(t, err)

	require.NotNil(t, record.OldStatus)
	assert.Equal(t, models.StatusApplied, *record.OldStatus)
	assert.Equal(t, models.StatusReplied, record.NewStatus)
	assert.Equal(t, models.StatusReplied, store.app.Status)
	require.Len(t, store.transitions, 1)
}

func TestChangeStatusAllowsBackwardMoves(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusRejected}}
	svc := newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusReplied, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReplied, store.app.Status)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusApplied}}
	svc := newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.Status("Interviewing"), nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	// Stored state and history stay untouched.
	assert.Equal(t, models.StatusApplied, store.app.Status)
	assert.Empty(t, store.transitions)
}

func TestChangeStatusWithdrawnGatedByConfig(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusApplied}}
	svc := newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusWithdrawn, nil)
	require.Error(t, err)

	svc = newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{EnableWithdrawn: true})
	_, err = svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusWithdrawn, nil)
	require.NoError(t, err)
}

func TestChangeStatusTerminalGuard(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusOffer}}
	svc := newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{GuardTerminal: true})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusReplied, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Empty(t, store.transitions)
}

func TestChangeStatusDispatchesPoints(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusApplied}}
	dispatcher := &fakeDispatcher{}
	svc := newTransitionService(store, dispatcher, config.PipelineConfig{})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusReplied, nil)
	require.NoError(t, err)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, 5, dispatcher.events[0].Points)
	assert.Equal(t, "status_changed", dispatcher.events[0].Reason)
}

func TestChangeStatusOfferAwardsBonus(t *testing.T) {
	store := &fakeTransitionStore{app: &models.Application{ID: "a1", Status: models.StatusFinalRound}}
	dispatcher := &fakeDispatcher{}
	svc := newTransitionService(store, dispatcher, config.PipelineConfig{})

	_, err := svc.ChangeStatus(context.Background(), "u1", "a1", models.StatusOffer, nil)
	require.NoError(t, err)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, 30, dispatcher.events[0].Points)
	assert.Equal(t, "offer_received", dispatcher.events[0].Reason)
}

func TestHistoryReturnsOldestFirst(t *testing.T) {
	applied := models.StatusApplied
	store := &fakeTransitionStore{history: []models.TransitionRecord{
		{ID: "h1", NewStatus: models.StatusApplied},
		{ID: "h2", OldStatus: &applied, NewStatus: models.StatusReplied},
	}}
	svc := newTransitionService(store, &fakeDispatcher{}, config.PipelineConfig{})

	records, err := svc.History(context.Background(), "u1", "a1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h1", records[0].ID)
}
