package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/applyquest/applyquest-api/internal/models"
)

// GeoCacheRepository persists geocode lookups in Postgres so resolved
// locations survive restarts and external outages.
type GeoCacheRepository struct {
	db *sqlx.DB
}

// NewGeoCacheRepository constructs a GeoCacheRepository.
func NewGeoCacheRepository(db *sqlx.DB) *GeoCacheRepository {
	return &GeoCacheRepository{db: db}
}

// Get fetches a persisted lookup by its normalised key.
func (r *GeoCacheRepository) Get(ctx context.Context, key string) (*models.GeoCacheEntry, error) {
	const query = `SELECT key, location, lat, lon, resolved_at FROM geocode_cache WHERE key = $1`
	var entry models.GeoCacheEntry
	if err := r.db.GetContext(ctx, &entry, query, key); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put upserts a resolved lookup.
func (r *GeoCacheRepository) Put(ctx context.Context, entry *models.GeoCacheEntry) error {
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = time.Now().UTC()
	}
	const query = `INSERT INTO geocode_cache (key, location, lat, lon, resolved_at)
        VALUES (:key, :location, :lat, :lon, :resolved_at)
        ON CONFLICT (key) DO UPDATE SET location = EXCLUDED.location, lat = EXCLUDED.lat,
        lon = EXCLUDED.lon, resolved_at = EXCLUDED.resolved_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("put geocode cache: %w", err)
	}
	return nil
}

// LoadAll returns every persisted lookup, used to warm the in-process memo
// on startup.
func (r *GeoCacheRepository) LoadAll(ctx context.Context) ([]models.GeoCacheEntry, error) {
	const query = `SELECT key, location, lat, lon, resolved_at FROM geocode_cache`
	var entries []models.GeoCacheEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("load geocode cache: %w", err)
	}
	return entries, nil
}
