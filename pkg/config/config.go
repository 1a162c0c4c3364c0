package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Analytics    AnalyticsConfig
	Pipeline     PipelineConfig
	Geocode      GeocodeConfig
	Gamification GamificationConfig
	Exports      ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour for analytics endpoints.
type AnalyticsConfig struct {
	Enabled  bool
	CacheTTL time.Duration
	TechTopK int
}

// PipelineConfig tunes the application status pipeline.
type PipelineConfig struct {
	// GuardTerminal rejects transitions out of Offer/Rejected/Ghosted.
	// Off by default: real pipelines re-open closed applications.
	GuardTerminal   bool
	EnableWithdrawn bool
}

// GeocodeConfig configures the external location lookup.
type GeocodeConfig struct {
	BaseURL     string
	Country     string
	CountryCode string
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
}

// GamificationConfig sets point awards for tracked activities.
type GamificationConfig struct {
	PointsApplicationCreated int
	PointsApplicationUpdated int
	PointsStatusChanged      int
	PointsOfferReceived      int
	PointsContactAdded       int
	QueueWorkers             int
}

// ExportsConfig toggles the application list export endpoint.
type ExportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		Enabled:  v.GetBool("ENABLE_ANALYTICS"),
		CacheTTL: parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		TechTopK: v.GetInt("ANALYTICS_TECH_TOP_K"),
	}

	cfg.Pipeline = PipelineConfig{
		GuardTerminal:   v.GetBool("PIPELINE_GUARD_TERMINAL"),
		EnableWithdrawn: v.GetBool("PIPELINE_ENABLE_WITHDRAWN"),
	}

	cfg.Geocode = GeocodeConfig{
		BaseURL:     v.GetString("GEOCODE_BASE_URL"),
		Country:     v.GetString("GEOCODE_COUNTRY"),
		CountryCode: v.GetString("GEOCODE_COUNTRY_CODE"),
		Timeout:     parseDuration(v.GetString("GEOCODE_TIMEOUT"), 5*time.Second),
		Concurrency: v.GetInt("GEOCODE_CONCURRENCY"),
		UserAgent:   v.GetString("GEOCODE_USER_AGENT"),
	}

	cfg.Gamification = GamificationConfig{
		PointsApplicationCreated: v.GetInt("POINTS_APPLICATION_CREATED"),
		PointsApplicationUpdated: v.GetInt("POINTS_APPLICATION_UPDATED"),
		PointsStatusChanged:      v.GetInt("POINTS_STATUS_CHANGED"),
		PointsOfferReceived:      v.GetInt("POINTS_OFFER_RECEIVED"),
		PointsContactAdded:       v.GetInt("POINTS_CONTACT_ADDED"),
		QueueWorkers:             v.GetInt("GAMIFICATION_QUEUE_WORKERS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "applyquest")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ANALYTICS", true)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ANALYTICS_TECH_TOP_K", 12)

	v.SetDefault("PIPELINE_GUARD_TERMINAL", false)
	v.SetDefault("PIPELINE_ENABLE_WITHDRAWN", false)

	v.SetDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODE_COUNTRY", "Germany")
	v.SetDefault("GEOCODE_COUNTRY_CODE", "de")
	v.SetDefault("GEOCODE_TIMEOUT", "5s")
	v.SetDefault("GEOCODE_CONCURRENCY", 4)
	v.SetDefault("GEOCODE_USER_AGENT", "applyquest-api/1.0")

	v.SetDefault("POINTS_APPLICATION_CREATED", 2)
	v.SetDefault("POINTS_APPLICATION_UPDATED", 1)
	v.SetDefault("POINTS_STATUS_CHANGED", 5)
	v.SetDefault("POINTS_OFFER_RECEIVED", 25)
	v.SetDefault("POINTS_CONTACT_ADDED", 3)
	v.SetDefault("GAMIFICATION_QUEUE_WORKERS", 1)

	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
