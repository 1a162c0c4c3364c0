package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/jobs"
)

// GamificationStore persists the user's point counters.
type GamificationStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ApplyPointAward(ctx context.Context, user *models.User, entry *models.PointHistory) error
	ListPointHistory(ctx context.Context, userID string, limit int) ([]models.PointHistory, error)
}

// GamificationService turns point events into persisted points, levels and
// activity streaks.
type GamificationService struct {
	store   GamificationStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewGamificationService constructs a GamificationService.
func NewGamificationService(store GamificationStore, metrics *MetricsService, logger *zap.Logger) *GamificationService {
	return &GamificationService{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// Award applies one point event: it bumps points, recomputes the level, and
// advances the activity streak. Consecutive-day activity extends the streak,
// same-day activity keeps it, a gap resets it to one.
func (s *GamificationService) Award(ctx context.Context, event models.PointEvent) error {
	user, err := s.store.FindByID(ctx, event.UserID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	user.Points += event.Points
	level := models.LevelForPoints(user.Points)
	user.Level = level.Level
	user.LevelName = level.Name

	today := now.Truncate(24 * time.Hour)
	switch {
	case user.LastActivity == nil:
		user.CurrentStreak = 1
	default:
		last := user.LastActivity.UTC().Truncate(24 * time.Hour)
		switch {
		case last.Equal(today):
			// Already counted today.
		case last.Equal(today.AddDate(0, 0, -1)):
			user.CurrentStreak++
		default:
			user.CurrentStreak = 1
		}
	}
	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	user.LastActivity = &now

	entry := &models.PointHistory{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		Points:    event.Points,
		Reason:    event.Reason,
		CreatedAt: now,
	}
	if event.ReferenceType != "" {
		entry.ReferenceType = &event.ReferenceType
	}
	if event.ReferenceID != "" {
		entry.ReferenceID = &event.ReferenceID
	}

	if err := s.store.ApplyPointAward(ctx, user, entry); err != nil {
		return err
	}
	s.metrics.RecordPointAward()
	s.logger.Debug("points awarded",
		zap.String("user_id", event.UserID),
		zap.Int("points", event.Points),
		zap.String("reason", event.Reason))
	return nil
}

// Stats reads the user's gamification counters and the threshold for the
// next level, zero once the top level is reached.
func (s *GamificationService) Stats(ctx context.Context, userID string) (*models.User, int, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	next := 0
	for _, level := range models.ExperienceLevels {
		if level.MinPoints > user.Points {
			next = level.MinPoints
			break
		}
	}
	return user, next, nil
}

// History lists recent point awards.
func (s *GamificationService) History(ctx context.Context, userID string, limit int) ([]models.PointHistory, error) {
	return s.store.ListPointHistory(ctx, userID, limit)
}

// QueueDispatcher pushes point events onto the background queue so request
// handling never waits on gamification writes.
type QueueDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueDispatcher constructs a QueueDispatcher.
func NewQueueDispatcher(queue *jobs.Queue, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, logger: logger}
}

// Dispatch enqueues the event. Failures are logged and dropped.
func (d *QueueDispatcher) Dispatch(event models.PointEvent) {
	if d == nil || d.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Payload: event}
	if err := d.queue.Enqueue(job); err != nil {
		d.logger.Warn("point event dropped", zap.String("user_id", event.UserID), zap.Error(err))
	}
}

// NewPointQueue wires a jobs queue whose handler applies point events.
func NewPointQueue(svc *GamificationService, workers int, logger *zap.Logger) *jobs.Queue {
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.PointEvent)
		if !ok {
			logger.Error("unexpected point job payload", zap.String("job_id", job.ID))
			return nil
		}
		return svc.Award(ctx, event)
	}
	return jobs.NewQueue("gamification", handler, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
}
