package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/middleware"
	"github.com/applyquest/applyquest-api/internal/models"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
	"github.com/applyquest/applyquest-api/pkg/response"
)

type analyticsService interface {
	StatusDistribution(ctx context.Context, userID string) ([]models.DistributionEntry, bool, error)
	Funnel(ctx context.Context, userID string) ([]models.FunnelStage, bool, error)
	Flow(ctx context.Context, userID string) (models.FlowGraph, bool, error)
	TimeSeries(ctx context.Context, userID string, window models.TimeWindow) ([]models.TimeBucket, bool, error)
	TechFrequency(ctx context.Context, userID string, topK int) ([]models.TechEntry, bool, error)
	IndustryRollup(ctx context.Context, userID string) ([]models.IndustrySummary, bool, error)
	Summary(ctx context.Context, userID string) (models.PipelineSummary, bool, error)
}

type geoService interface {
	MapMarkers(ctx context.Context, apps []models.Application) []models.GeoMarker
}

type applicationLister interface {
	ListAll(ctx context.Context, userID string) ([]models.Application, error)
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// AnalyticsHandler exposes the derived read models.
type AnalyticsHandler struct {
	analytics analyticsService
	geo       geoService
	apps      applicationLister
	metrics   metricsSnapshotter
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(analytics analyticsService, geo geoService, apps applicationLister, metrics metricsSnapshotter) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, geo: geo, apps: apps, metrics: metrics}
}

func (h *AnalyticsHandler) respond(c *gin.Context, data interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}

// Distribution godoc
// @Summary Applications per status
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/status-distribution [get]
func (h *AnalyticsHandler) Distribution(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, cacheHit, err := h.analytics.StatusDistribution(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, entries, cacheHit)
}

// Funnel godoc
// @Summary Pipeline conversion funnel
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/funnel [get]
func (h *AnalyticsHandler) Funnel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stages, cacheHit, err := h.analytics.Funnel(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, stages, cacheHit)
}

// Flow godoc
// @Summary Status transition flow graph
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/flow [get]
func (h *AnalyticsHandler) Flow(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	graph, cacheHit, err := h.analytics.Flow(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, graph, cacheHit)
}

// TimeSeries godoc
// @Summary Applications over time
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param interval query string false "day, week or month" default(day)
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /analytics/timeline [get]
func (h *AnalyticsHandler) TimeSeries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	window := models.TimeWindow{Interval: models.TimeInterval(c.DefaultQuery("interval", "day"))}
	switch window.Interval {
	case models.IntervalDay, models.IntervalWeek, models.IntervalMonth:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "interval must be day, week or month"))
		return
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		window.From = parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		window.To = parsed
	}

	series, cacheHit, err := h.analytics.TimeSeries(c.Request.Context(), claims.UserID, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, series, cacheHit)
}

// Tech godoc
// @Summary Technology frequency across applications
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param top query int false "Number of entries" default(12)
// @Success 200 {object} response.Envelope
// @Router /analytics/tech-stack [get]
func (h *AnalyticsHandler) Tech(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("top", "0"))
	entries, cacheHit, err := h.analytics.TechFrequency(c.Request.Context(), claims.UserID, topK)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, entries, cacheHit)
}

// Industries godoc
// @Summary Applications rolled up by industry
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/industries [get]
func (h *AnalyticsHandler) Industries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summaries, cacheHit, err := h.analytics.IndustryRollup(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, summaries, cacheHit)
}

// Summary godoc
// @Summary Dashboard quick stats
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, cacheHit, err := h.analytics.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, summary, cacheHit)
}

// Map godoc
// @Summary Geocoded application markers
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/map [get]
func (h *AnalyticsHandler) Map(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	apps, err := h.apps.ListAll(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	markers := h.geo.MapMarkers(c.Request.Context(), apps)

	stats := dto.MapStats{TotalCities: len(markers)}
	for _, marker := range markers {
		stats.TotalApplications += marker.Count
		if marker.Statuses[models.StatusOffer] > 0 {
			stats.CitiesWithOffers++
		}
	}
	if len(markers) > 0 {
		stats.MostActiveCity = markers[0].Location
	}
	response.JSON(c, http.StatusOK, dto.MapResponse{Markers: markers, Stats: stats}, nil)
}

// System godoc
// @Summary Runtime and cache metrics snapshot
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
