package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

type fakeGeoStore struct {
	mu      sync.Mutex
	entries map[string]models.GeoCacheEntry
	puts    int
}

func newFakeGeoStore() *fakeGeoStore {
	return &fakeGeoStore{entries: make(map[string]models.GeoCacheEntry)}
}

func (f *fakeGeoStore) Get(ctx context.Context, key string) (*models.GeoCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &entry, nil
}

func (f *fakeGeoStore) Put(ctx context.Context, entry *models.GeoCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Key] = *entry
	f.puts++
	return nil
}

func (f *fakeGeoStore) LoadAll(ctx context.Context) ([]models.GeoCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.GeoCacheEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		all = append(all, entry)
	}
	return all, nil
}

type fakeGeocoder struct {
	mu     sync.Mutex
	coords map[string]models.Coordinates
	err    error
	calls  int
}

func (f *fakeGeocoder) Search(ctx context.Context, location string) (*models.Coordinates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	coords, ok := f.coords[location]
	if !ok {
		return nil, assert.AnError
	}
	return &models.Coordinates{Lat: coords.Lat, Lon: coords.Lon}, nil
}

func newGeoService(store GeoStore, geocoder Geocoder) *GeoService {
	return NewGeoService(store, geocoder, nil, config.GeocodeConfig{Concurrency: 2}, zap.NewNop())
}

func TestResolveHitsExternalOnceForRepeats(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinates{
		"Berlin": {Lat: 52.52, Lon: 13.405},
	}}
	svc := newGeoService(newFakeGeoStore(), geocoder)

	coords, err := svc.Resolve(context.Background(), "Berlin")
	require.NoError(t, err)
	assert.InDelta(t, 52.52, coords.Lat, 0.0001)

	// Variants of the same text normalise to one key.
	_, err = svc.Resolve(context.Background(), "  berlin ")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "BERLIN")
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
}

func TestResolvePersistsExternalResult(t *testing.T) {
	store := newFakeGeoStore()
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinates{
		"Munich": {Lat: 48.137, Lon: 11.575},
	}}
	svc := newGeoService(store, geocoder)

	_, err := svc.Resolve(context.Background(), "Munich")
	require.NoError(t, err)
	assert.Equal(t, 1, store.puts)

	entry, err := store.Get(context.Background(), "munich")
	require.NoError(t, err)
	assert.Equal(t, "Munich", entry.Location)
}

func TestResolveFallsBackToStoreWhenProviderDown(t *testing.T) {
	store := newFakeGeoStore()
	require.NoError(t, store.Put(context.Background(), &models.GeoCacheEntry{
		Key: "hamburg", Location: "Hamburg", Lat: 53.55, Lon: 9.99,
	}))
	svc := newGeoService(store, &fakeGeocoder{err: assert.AnError})

	coords, err := svc.Resolve(context.Background(), "Hamburg")
	require.NoError(t, err)
	assert.InDelta(t, 53.55, coords.Lat, 0.0001)
}

func TestResolveUnavailableWhenNothingKnows(t *testing.T) {
	svc := newGeoService(newFakeGeoStore(), &fakeGeocoder{err: assert.AnError})

	_, err := svc.Resolve(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGeocodeUnavailable.Code, appErrors.FromError(err).Code)
}

func TestWarmPreloadsMemo(t *testing.T) {
	store := newFakeGeoStore()
	require.NoError(t, store.Put(context.Background(), &models.GeoCacheEntry{
		Key: "cologne", Location: "Cologne", Lat: 50.94, Lon: 6.96,
	}))
	geocoder := &fakeGeocoder{}
	svc := newGeoService(store, geocoder)

	require.NoError(t, svc.Warm(context.Background()))

	coords, err := svc.Resolve(context.Background(), "Cologne")
	require.NoError(t, err)
	assert.InDelta(t, 50.94, coords.Lat, 0.0001)
	assert.Zero(t, geocoder.calls)
}

func TestMapMarkersGroupsAndSkipsUnresolvable(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinates{
		"Berlin": {Lat: 52.52, Lon: 13.405},
	}}
	svc := newGeoService(newFakeGeoStore(), geocoder)

	apps := []models.Application{
		{Location: "Berlin", Status: models.StatusApplied},
		{Location: "berlin", Status: models.StatusOffer},
		{Location: "Berlin", Status: models.StatusOffer},
		{Location: "Nowhere", Status: models.StatusApplied},
	}

	markers := svc.MapMarkers(context.Background(), apps)
	require.Len(t, markers, 1)

	marker := markers[0]
	assert.Equal(t, "Berlin", marker.Location)
	assert.Equal(t, 3, marker.Count)
	assert.Equal(t, 2, marker.Statuses[models.StatusOffer])
	assert.Equal(t, models.StatusOffer, marker.TopStatus)
}
