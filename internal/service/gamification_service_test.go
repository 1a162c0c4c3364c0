package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
)

type fakeGamificationStore struct {
	user    *models.User
	entries []models.PointHistory
}

func (f *fakeGamificationStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.user, nil
}

func (f *fakeGamificationStore) ApplyPointAward(ctx context.Context, user *models.User, entry *models.PointHistory) error {
	f.user = user
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeGamificationStore) ListPointHistory(ctx context.Context, userID string, limit int) ([]models.PointHistory, error) {
	return f.entries, nil
}

func newGamificationService(store *fakeGamificationStore, now time.Time) *GamificationService {
	svc := NewGamificationService(store, nil, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestAwardAddsPointsAndRecordsHistory(t *testing.T) {
	store := &fakeGamificationStore{user: &models.User{ID: "u1", Points: 10, Level: 1, LevelName: "Novice Seeker"}}
	svc := newGamificationService(store, time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))

	err := svc.Award(context.Background(), models.PointEvent{UserID: "u1", Points: 5, Reason: "status_changed"})
	require.NoError(t, err)

	assert.Equal(t, 15, store.user.Points)
	require.Len(t, store.entries, 1)
	assert.Equal(t, 5, store.entries[0].Points)
	assert.Equal(t, "status_changed", store.entries[0].Reason)
}

func TestAwardCrossesLevelThreshold(t *testing.T) {
	store := &fakeGamificationStore{user: &models.User{ID: "u1", Points: 98, Level: 1, LevelName: "Novice Seeker"}}
	svc := newGamificationService(store, time.Now())

	err := svc.Award(context.Background(), models.PointEvent{UserID: "u1", Points: 5, Reason: "status_changed"})
	require.NoError(t, err)

	assert.Equal(t, 2, store.user.Level)
	assert.Equal(t, "Active Applicant", store.user.LevelName)
}

func TestAwardStreakProgression(t *testing.T) {
	day := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	yesterday := day.AddDate(0, 0, -1)
	store := &fakeGamificationStore{user: &models.User{
		ID: "u1", CurrentStreak: 3, LongestStreak: 3, LastActivity: &yesterday,
	}}
	svc := newGamificationService(store, day)

	require.NoError(t, svc.Award(context.Background(), models.PointEvent{UserID: "u1", Points: 1, Reason: "x"}))
	assert.Equal(t, 4, store.user.CurrentStreak)
	assert.Equal(t, 4, store.user.LongestStreak)

	// A second event the same day leaves the streak alone.
	require.NoError(t, svc.Award(context.Background(), models.PointEvent{UserID: "u1", Points: 1, Reason: "x"}))
	assert.Equal(t, 4, store.user.CurrentStreak)
}

func TestAwardStreakResetsAfterGap(t *testing.T) {
	day := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	lastWeek := day.AddDate(0, 0, -7)
	store := &fakeGamificationStore{user: &models.User{
		ID: "u1", CurrentStreak: 5, LongestStreak: 9, LastActivity: &lastWeek,
	}}
	svc := newGamificationService(store, day)

	require.NoError(t, svc.Award(context.Background(), models.PointEvent{UserID: "u1", Points: 1, Reason: "x"}))
	assert.Equal(t, 1, store.user.CurrentStreak)
	assert.Equal(t, 9, store.user.LongestStreak)
}

func TestStatsNextLevelThreshold(t *testing.T) {
	store := &fakeGamificationStore{user: &models.User{ID: "u1", Points: 150}}
	svc := newGamificationService(store, time.Now())

	_, next, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 300, next)
}

func TestStatsTopLevelHasNoNextThreshold(t *testing.T) {
	store := &fakeGamificationStore{user: &models.User{ID: "u1", Points: 2000}}
	svc := newGamificationService(store, time.Now())

	_, next, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, next)
}
