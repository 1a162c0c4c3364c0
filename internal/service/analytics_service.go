package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

// AnalyticsStore provides the raw rows the analytics folds run over.
type AnalyticsStore interface {
	ListAll(ctx context.Context, userID string) ([]models.Application, error)
	ListAllHistory(ctx context.Context, userID string) ([]models.TransitionRecord, error)
}

// AnalyticsService derives read models from applications and their history.
// Every view is recomputed from the stored rows and cached per user; the
// boolean return reports whether the response came from cache.
type AnalyticsService struct {
	store      AnalyticsStore
	cache      *CacheService
	classifier *IndustryClassifier
	cfg        config.AnalyticsConfig
	logger     *zap.Logger
	now        func() time.Time
}

// AnalyticsServiceParams bundles the analytics service dependencies.
type AnalyticsServiceParams struct {
	Store      AnalyticsStore
	Cache      *CacheService
	Classifier *IndustryClassifier
	Config     config.AnalyticsConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(params AnalyticsServiceParams) *AnalyticsService {
	if params.Classifier == nil {
		params.Classifier = NewIndustryClassifier()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &AnalyticsService{
		store:      params.Store,
		cache:      params.Cache,
		classifier: params.Classifier,
		cfg:        params.Config,
		logger:     params.Logger,
		now:        params.Now,
	}
}

func (s *AnalyticsService) loadApps(ctx context.Context, userID string) ([]models.Application, error) {
	apps, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load applications")
	}
	return apps, nil
}

// StatusDistribution reports how many applications sit in each status.
func (s *AnalyticsService) StatusDistribution(ctx context.Context, userID string) ([]models.DistributionEntry, bool, error) {
	key := analyticsCacheKey(userID, "distribution")
	var cached []models.DistributionEntry
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	entries := ComputeStatusDistribution(apps)

	_ = s.cache.Set(ctx, key, entries, s.cfg.CacheTTL)
	return entries, false, nil
}

// Funnel reports the stage-by-stage pipeline conversion.
func (s *AnalyticsService) Funnel(ctx context.Context, userID string) ([]models.FunnelStage, bool, error) {
	key := analyticsCacheKey(userID, "funnel")
	var cached []models.FunnelStage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	stages := ComputeFunnel(apps)

	_ = s.cache.Set(ctx, key, stages, s.cfg.CacheTTL)
	return stages, false, nil
}

// Flow builds the Sankey transition graph from the full status history.
func (s *AnalyticsService) Flow(ctx context.Context, userID string) (models.FlowGraph, bool, error) {
	key := analyticsCacheKey(userID, "flow")
	var cached models.FlowGraph
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	records, err := s.store.ListAllHistory(ctx, userID)
	if err != nil {
		return models.FlowGraph{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load history")
	}
	graph := ComputeFlow(records)

	_ = s.cache.Set(ctx, key, graph, s.cfg.CacheTTL)
	return graph, false, nil
}

// TimeSeries buckets applications over the window. A zero window defaults to
// the last 90 days by day.
func (s *AnalyticsService) TimeSeries(ctx context.Context, userID string, window models.TimeWindow) ([]models.TimeBucket, bool, error) {
	if window.Interval == "" {
		window.Interval = models.IntervalDay
	}
	if window.To.IsZero() {
		window.To = s.now().UTC()
	}
	if window.From.IsZero() {
		window.From = window.To.AddDate(0, 0, -90)
	}

	key := analyticsCacheKey(userID, "timeseries", string(window.Interval),
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
	var cached []models.TimeBucket
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	series := ComputeTimeSeries(apps, window)

	_ = s.cache.Set(ctx, key, series, s.cfg.CacheTTL)
	return series, false, nil
}

// TechFrequency ranks the technologies mentioned across applications.
func (s *AnalyticsService) TechFrequency(ctx context.Context, userID string, topK int) ([]models.TechEntry, bool, error) {
	if topK <= 0 {
		topK = s.cfg.TechTopK
	}
	key := analyticsCacheKey(userID, "tech", fmt.Sprintf("%d", topK))
	var cached []models.TechEntry
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	entries := ComputeTechFrequency(apps, topK)

	_ = s.cache.Set(ctx, key, entries, s.cfg.CacheTTL)
	return entries, false, nil
}

// IndustryRollup aggregates applications per classified industry.
func (s *AnalyticsService) IndustryRollup(ctx context.Context, userID string) ([]models.IndustrySummary, bool, error) {
	key := analyticsCacheKey(userID, "industry")
	var cached []models.IndustrySummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	summaries := ComputeIndustryRollup(apps, s.classifier)

	_ = s.cache.Set(ctx, key, summaries, s.cfg.CacheTTL)
	return summaries, false, nil
}

// Summary derives the dashboard quick stats.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (models.PipelineSummary, bool, error) {
	key := analyticsCacheKey(userID, "summary")
	var cached models.PipelineSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	apps, err := s.loadApps(ctx, userID)
	if err != nil {
		return models.PipelineSummary{}, false, err
	}
	summary := ComputeSummary(apps)

	_ = s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Invalidate drops every cached analytics view of the user. Writes to
// applications call this so the next read recomputes.
func (s *AnalyticsService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, analyticsCachePattern(userID)); err != nil {
		s.logger.Warn("analytics invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
