package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

// GeoStore persists geocode lookups across restarts.
type GeoStore interface {
	Get(ctx context.Context, key string) (*models.GeoCacheEntry, error)
	Put(ctx context.Context, entry *models.GeoCacheEntry) error
	LoadAll(ctx context.Context) ([]models.GeoCacheEntry, error)
}

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Search(ctx context.Context, location string) (*models.Coordinates, error)
}

// GeoService resolves application locations to map coordinates. Lookups go
// through three layers: an in-process memo, the persisted store, and the
// external provider. Results from the provider are persisted so an outage
// only degrades locations never seen before.
type GeoService struct {
	store    GeoStore
	geocoder Geocoder
	metrics  *MetricsService
	cfg      config.GeocodeConfig
	logger   *zap.Logger

	mu   sync.RWMutex
	memo map[string]models.Coordinates
}

// NewGeoService constructs a GeoService.
func NewGeoService(store GeoStore, geocoder Geocoder, metrics *MetricsService, cfg config.GeocodeConfig, logger *zap.Logger) *GeoService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &GeoService{
		store:    store,
		geocoder: geocoder,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		memo:     make(map[string]models.Coordinates),
	}
}

// geoKey normalises location text into the cache key.
func geoKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// Warm preloads the in-process memo from the persisted store.
func (s *GeoService) Warm(ctx context.Context) error {
	entries, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, entry := range entries {
		s.memo[entry.Key] = models.Coordinates{Lat: entry.Lat, Lon: entry.Lon}
	}
	s.mu.Unlock()
	s.logger.Info("geocode memo warmed", zap.Int("entries", len(entries)))
	return nil
}

// Resolve turns a location text into coordinates.
func (s *GeoService) Resolve(ctx context.Context, location string) (*models.Coordinates, error) {
	key := geoKey(location)
	if key == "" {
		return nil, appErrors.ErrGeocodeUnavailable
	}

	s.mu.RLock()
	coords, ok := s.memo[key]
	s.mu.RUnlock()
	if ok {
		s.metrics.RecordGeocodeLookup("memo")
		return &models.Coordinates{Lat: coords.Lat, Lon: coords.Lon}, nil
	}

	if entry, err := s.store.Get(ctx, key); err == nil {
		resolved := models.Coordinates{Lat: entry.Lat, Lon: entry.Lon}
		s.remember(key, resolved)
		s.metrics.RecordGeocodeLookup("store")
		return &resolved, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resolved, err := s.geocoder.Search(lookupCtx, strings.TrimSpace(location))
	if err != nil {
		s.metrics.RecordGeocodeLookup("failed")
		s.logger.Warn("geocode lookup failed", zap.String("location", location), zap.Error(err))
		return nil, appErrors.ErrGeocodeUnavailable
	}
	s.metrics.RecordGeocodeLookup("external")

	s.remember(key, *resolved)
	entry := &models.GeoCacheEntry{
		Key:        key,
		Location:   strings.TrimSpace(location),
		Lat:        resolved.Lat,
		Lon:        resolved.Lon,
		ResolvedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		s.logger.Warn("geocode persist failed", zap.String("key", key), zap.Error(err))
	}
	return resolved, nil
}

func (s *GeoService) remember(key string, coords models.Coordinates) {
	s.mu.Lock()
	s.memo[key] = coords
	s.mu.Unlock()
}

// MapMarkers groups applications by location and resolves each distinct
// location with bounded fan-out. Locations that cannot be resolved are left
// off the map rather than failing the whole view.
func (s *GeoService) MapMarkers(ctx context.Context, apps []models.Application) []models.GeoMarker {
	type group struct {
		location string
		count    int
		statuses map[models.Status]int
	}
	groups := make(map[string]*group)
	var order []string
	for _, app := range apps {
		key := geoKey(app.Location)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{location: strings.TrimSpace(app.Location), statuses: make(map[models.Status]int)}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.statuses[app.Status]++
	}

	coords := make(map[string]models.Coordinates)
	var coordsMu sync.Mutex
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, key := range order {
		wg.Add(1)
		sem <- struct{}{}
		go func(key, location string) {
			defer wg.Done()
			defer func() { <-sem }()
			resolved, err := s.Resolve(ctx, location)
			if err != nil {
				return
			}
			coordsMu.Lock()
			coords[key] = *resolved
			coordsMu.Unlock()
		}(key, groups[key].location)
	}
	wg.Wait()

	markers := make([]models.GeoMarker, 0, len(order))
	for _, key := range order {
		resolved, ok := coords[key]
		if !ok {
			continue
		}
		g := groups[key]
		markers = append(markers, models.GeoMarker{
			Location:    g.location,
			Coordinates: resolved,
			Count:       g.count,
			Statuses:    g.statuses,
			TopStatus:   topStatus(g.statuses),
		})
	}
	sort.SliceStable(markers, func(i, j int) bool {
		if markers[i].Count != markers[j].Count {
			return markers[i].Count > markers[j].Count
		}
		return markers[i].Location < markers[j].Location
	})
	return markers
}

// topStatus picks the most frequent status of a marker, breaking ties by
// pipeline priority.
func topStatus(statuses map[models.Status]int) models.Status {
	var best models.Status
	bestCount := -1
	for status, count := range statuses {
		if count > bestCount ||
			(count == bestCount && models.StatusPriority(status) < models.StatusPriority(best)) {
			best = status
			bestCount = count
		}
	}
	return best
}
