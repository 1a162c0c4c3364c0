package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

type fakeAnalyticsStore struct {
	apps      []models.Application
	history   []models.TransitionRecord
	listCalls int
}

func (f *fakeAnalyticsStore) ListAll(ctx context.Context, userID string) ([]models.Application, error) {
	f.listCalls++
	return f.apps, nil
}

func (f *fakeAnalyticsStore) ListAllHistory(ctx context.Context, userID string) ([]models.TransitionRecord, error) {
	return f.history, nil
}

// stubCacheRepo is an in-memory CacheRepository with pattern invalidation
// limited to prefix matching, which is all the analytics keys need.
type stubCacheRepo struct {
	values map[string][]byte
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{values: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for key := range s.values {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.values, key)
		}
	}
	return nil
}

func newAnalyticsService(store *fakeAnalyticsStore, repo CacheRepository) *AnalyticsService {
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), repo != nil)
	return NewAnalyticsService(AnalyticsServiceParams{
		Store:  store,
		Cache:  cache,
		Config: config.AnalyticsConfig{Enabled: true, CacheTTL: time.Minute, TechTopK: 12},
		Logger: zap.NewNop(),
	})
}

func TestStatusDistributionCachesSecondRead(t *testing.T) {
	store := &fakeAnalyticsStore{apps: []models.Application{
		app(models.StatusApplied), app(models.StatusOffer),
	}}
	svc := newAnalyticsService(store, newStubCacheRepo())

	entries, hit, err := svc.StatusDistribution(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, entries, 2)

	entries, hit, err = svc.StatusDistribution(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, store.listCalls)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	store := &fakeAnalyticsStore{apps: []models.Application{app(models.StatusApplied)}}
	svc := newAnalyticsService(store, newStubCacheRepo())

	_, _, err := svc.Funnel(context.Background(), "u1")
	require.NoError(t, err)

	svc.Invalidate(context.Background(), "u1")

	_, hit, err := svc.Funnel(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, store.listCalls)
}

func TestFlowFoldsHistory(t *testing.T) {
	applied := models.StatusApplied
	store := &fakeAnalyticsStore{history: []models.TransitionRecord{
		{ApplicationID: "a1", NewStatus: models.StatusApplied},
		{ApplicationID: "a1", OldStatus: &applied, NewStatus: models.StatusReplied},
	}}
	svc := newAnalyticsService(store, newStubCacheRepo())

	graph, hit, err := svc.Flow(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"Applied", "Replied"}, graph.Nodes)
	require.Len(t, graph.Edges, 2)
	assert.Equal(t, models.FlowEdge{Source: "Applied", Target: "Applied", Count: 1}, graph.Edges[0])
	assert.Equal(t, models.FlowEdge{Source: "Applied", Target: "Replied", Count: 1}, graph.Edges[1])
}

func TestTimeSeriesDefaultsWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeAnalyticsStore{}
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewAnalyticsService(AnalyticsServiceParams{
		Store:  store,
		Cache:  cache,
		Config: config.AnalyticsConfig{CacheTTL: time.Minute},
		Now:    func() time.Time { return now },
	})

	series, _, err := svc.TimeSeries(context.Background(), "u1", models.TimeWindow{})
	require.NoError(t, err)
	require.NotEmpty(t, series)
	assert.Equal(t, "2026-03-03", series[0].Date)
	assert.Equal(t, "2026-06-01", series[len(series)-1].Date)
}

func TestAnalyticsWorksWithoutCache(t *testing.T) {
	store := &fakeAnalyticsStore{apps: []models.Application{app(models.StatusApplied)}}
	svc := newAnalyticsService(store, nil)

	_, hit, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, store.listCalls)
}
