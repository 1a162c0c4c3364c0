package dto

import "github.com/applyquest/applyquest-api/internal/models"

// MapStats summarises the geographic spread of applications.
type MapStats struct {
	TotalCities       int    `json:"total_cities"`
	TotalApplications int    `json:"total_applications"`
	CitiesWithOffers  int    `json:"cities_with_offers"`
	MostActiveCity    string `json:"most_active_city"`
}

// MapResponse carries geocoded markers plus summary stats for the map view.
type MapResponse struct {
	Markers []models.GeoMarker `json:"markers"`
	Stats   MapStats           `json:"stats"`
}
