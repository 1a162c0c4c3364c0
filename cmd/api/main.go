package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/applyquest/applyquest-api/api/swagger"
	"github.com/applyquest/applyquest-api/internal/geocode"
	"github.com/applyquest/applyquest-api/internal/handler"
	"github.com/applyquest/applyquest-api/internal/middleware"
	"github.com/applyquest/applyquest-api/internal/repository"
	"github.com/applyquest/applyquest-api/internal/service"
	"github.com/applyquest/applyquest-api/pkg/cache"
	"github.com/applyquest/applyquest-api/pkg/config"
	"github.com/applyquest/applyquest-api/pkg/database"
	"github.com/applyquest/applyquest-api/pkg/logger"
	corsmiddleware "github.com/applyquest/applyquest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/applyquest/applyquest-api/pkg/middleware/requestid"
)

// @title ApplyQuest API
// @version 1.0.0
// @description Job application tracker with pipeline analytics and gamification
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, analytics cache disabled", "error", err)
		redisClient = nil
	}

	metricsService := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)

	applicationRepo := repository.NewApplicationRepository(db)
	contactRepo := repository.NewContactRepository(db)
	userRepo := repository.NewUserRepository(db)
	geoCacheRepo := repository.NewGeoCacheRepository(db)

	gamificationService := service.NewGamificationService(userRepo, metricsService, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pointQueue := service.NewPointQueue(gamificationService, cfg.Gamification.QueueWorkers, logr)
	pointQueue.Start(ctx)
	defer pointQueue.Stop()

	dispatcher := service.NewQueueDispatcher(pointQueue, logr)

	authService := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "applyquest-api",
	})
	applicationService := service.NewApplicationService(applicationRepo, cacheService, dispatcher, cfg.Gamification, logr)
	transitionService := service.NewTransitionService(applicationRepo, cacheService, dispatcher, cfg.Pipeline, cfg.Gamification, logr)
	analyticsService := service.NewAnalyticsService(service.AnalyticsServiceParams{
		Store:      applicationRepo,
		Cache:      cacheService,
		Classifier: service.NewIndustryClassifier(),
		Config:     cfg.Analytics,
		Logger:     logr,
	})

	geocoder := geocode.NewClient(cfg.Geocode, logr)
	geoService := service.NewGeoService(geoCacheRepo, geocoder, metricsService, cfg.Geocode, logr)
	warmCtx, cancelWarm := context.WithTimeout(ctx, 10*time.Second)
	if err := geoService.Warm(warmCtx); err != nil {
		logr.Sugar().Warnw("geocode cache warm-up failed", "error", err)
	}
	cancelWarm()

	contactService := service.NewContactService(contactRepo, dispatcher, cfg.Gamification, logr)
	userService := service.NewUserService(userRepo, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportService = service.NewExportService(applicationRepo, logr)
	}

	authHandler := handler.NewAuthHandler(authService)
	applicationHandler := handler.NewApplicationHandler(applicationService, transitionService, exportService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, geoService, applicationRepo, metricsService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService, gamificationService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		applications := protected.Group("/applications")
		{
			applications.GET("", applicationHandler.List)
			applications.POST("", applicationHandler.Create)
			applications.GET("/export", applicationHandler.Export)
			applications.GET("/:id", applicationHandler.Get)
			applications.PUT("/:id", applicationHandler.Update)
			applications.DELETE("/:id", applicationHandler.Delete)
			applications.PATCH("/:id/status", applicationHandler.ChangeStatus)
			applications.GET("/:id/history", applicationHandler.History)
		}

		analytics := protected.Group("/analytics")
		{
			analytics.GET("/status-distribution", analyticsHandler.Distribution)
			analytics.GET("/funnel", analyticsHandler.Funnel)
			analytics.GET("/flow", analyticsHandler.Flow)
			analytics.GET("/timeline", analyticsHandler.TimeSeries)
			analytics.GET("/tech-stack", analyticsHandler.Tech)
			analytics.GET("/industries", analyticsHandler.Industries)
			analytics.GET("/summary", analyticsHandler.Summary)
			analytics.GET("/map", analyticsHandler.Map)
			analytics.GET("/system", analyticsHandler.System)
		}

		contacts := protected.Group("/network")
		{
			contacts.GET("", contactHandler.List)
			contacts.POST("", contactHandler.Create)
			contacts.GET("/:id", contactHandler.Get)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
		}

		user := protected.Group("/user")
		{
			user.GET("/profile", userHandler.Profile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.GET("/stats", userHandler.Stats)
			user.GET("/points", userHandler.PointHistory)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
