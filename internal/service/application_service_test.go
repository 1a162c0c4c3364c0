package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

type fakeApplicationStore struct {
	apps map[string]*models.Application
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{apps: make(map[string]*models.Application)}
}

func (f *fakeApplicationStore) List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error) {
	var out []models.Application
	for _, app := range f.apps {
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (f *fakeApplicationStore) ListAll(ctx context.Context, userID string) ([]models.Application, error) {
	var out []models.Application
	for _, app := range f.apps {
		out = append(out, *app)
	}
	return out, nil
}

func (f *fakeApplicationStore) FindByID(ctx context.Context, userID, id string) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApplicationStore) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = "a1"
	}
	app.CreatedAt = time.Now().UTC()
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationStore) Update(ctx context.Context, app *models.Application) error {
	if _, ok := f.apps[app.ID]; !ok {
		return sql.ErrNoRows
	}
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationStore) Delete(ctx context.Context, userID, id string) error {
	if _, ok := f.apps[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.apps, id)
	return nil
}

func newApplicationService(store ApplicationStore, dispatcher *fakeDispatcher) *ApplicationService {
	return NewApplicationService(store, nil, dispatcher, defaultPoints(), zap.NewNop())
}

func TestCreateForcesAppliedStatus(t *testing.T) {
	store := newFakeApplicationStore()
	dispatcher := &fakeDispatcher{}
	svc := newApplicationService(store, dispatcher)

	app, err := svc.Create(context.Background(), "u1", dto.CreateApplicationRequest{
		CompanyName:   "Acme",
		PositionTitle: "Backend Engineer",
		Location:      "Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, models.GermanNone, app.GermanRequirement)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, 2, dispatcher.events[0].Points)
	assert.Equal(t, "application_created", dispatcher.events[0].Reason)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := newApplicationService(newFakeApplicationStore(), &fakeDispatcher{})

	_, err := svc.Create(context.Background(), "u1", dto.CreateApplicationRequest{CompanyName: "Acme"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateParsesAppliedDate(t *testing.T) {
	svc := newApplicationService(newFakeApplicationStore(), &fakeDispatcher{})

	app, err := svc.Create(context.Background(), "u1", dto.CreateApplicationRequest{
		CompanyName:   "Acme",
		PositionTitle: "Backend Engineer",
		Location:      "Berlin",
		AppliedDate:   "2026-02-14",
	})
	require.NoError(t, err)
	assert.Equal(t, 2026, app.AppliedDate.Year())
	assert.Equal(t, time.February, app.AppliedDate.Month())
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	store := newFakeApplicationStore()
	dispatcher := &fakeDispatcher{}
	svc := newApplicationService(store, dispatcher)

	created, err := svc.Create(context.Background(), "u1", dto.CreateApplicationRequest{
		CompanyName:   "Acme",
		PositionTitle: "Backend Engineer",
		Location:      "Berlin",
	})
	require.NoError(t, err)

	stars := 5
	updated, err := svc.Update(context.Background(), "u1", created.ID, dto.UpdateApplicationRequest{
		PriorityStars: &stars,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.PriorityStars)
	assert.Equal(t, "Acme", updated.CompanyName)

	require.Len(t, dispatcher.events, 2)
	assert.Equal(t, 1, dispatcher.events[1].Points)
}

func TestUpdateMissingApplication(t *testing.T) {
	svc := newApplicationService(newFakeApplicationStore(), &fakeDispatcher{})

	_, err := svc.Update(context.Background(), "u1", "missing", dto.UpdateApplicationRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteMissingApplication(t *testing.T) {
	svc := newApplicationService(newFakeApplicationStore(), &fakeDispatcher{})

	err := svc.Delete(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
