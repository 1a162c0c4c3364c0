// Package geocode talks to the Nominatim search API to resolve free-text
// locations into coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/pkg/config"
)

// ErrNoResult is returned when the provider finds nothing for the query.
var ErrNoResult = fmt.Errorf("geocode: no result")

// Client queries the Nominatim HTTP API.
type Client struct {
	baseURL     string
	country     string
	countryCode string
	userAgent   string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient constructs a Client from the geocode configuration.
func NewClient(cfg config.GeocodeConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		country:     cfg.Country,
		countryCode: cfg.CountryCode,
		userAgent:   cfg.UserAgent,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search resolves a location text to coordinates. The configured country name
// is appended to the query and the country-code filter narrows results; only
// the first hit is used.
func (c *Client) Search(ctx context.Context, location string) (*models.Coordinates, error) {
	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("geocode: parse base url: %w", err)
	}
	query := location
	if c.country != "" {
		query = location + ", " + c.country
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.countryCode != "" {
		params.Set("countrycodes", c.countryCode)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse lon: %w", err)
	}
	return &models.Coordinates{Lat: lat, Lon: lon}, nil
}
