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

	Upstream UpstreamConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Compose  ComposeConfig
	Exports  ExportsConfig
}

// UpstreamConfig points at the workflow backend's Canvas webhook endpoints.
type UpstreamConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// RedisConfig locates the response cache. URL wins when set, which is how
// hosted Redis providers hand out credentials; host/port cover local setups.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds the secret shared with the external session provider.
type AuthConfig struct {
	AccessTokenSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the optional Redis response cache.
type CacheConfig struct {
	Enabled        bool
	CoursesTTL     time.Duration
	TokenStatusTTL time.Duration
}

// SyncConfig tunes the course sync cascade.
type SyncConfig struct {
	SettleDelay time.Duration
	Workers     int
}

// ComposeConfig bounds compose session lifetime.
type ComposeConfig struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// ExportsConfig toggles roster export endpoints.
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

	cfg.Upstream = UpstreamConfig{
		BaseURL:        strings.TrimRight(v.GetString("CANVAS_WEBHOOK_BASE_URL"), "/"),
		RequestTimeout: parseDuration(v.GetString("CANVAS_WEBHOOK_TIMEOUT"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		AccessTokenSecret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:        v.GetBool("ENABLE_CACHE"),
		CoursesTTL:     parseDuration(v.GetString("CACHE_COURSES_TTL"), 2*time.Minute),
		TokenStatusTTL: parseDuration(v.GetString("CACHE_TOKEN_STATUS_TTL"), 5*time.Minute),
	}

	cfg.Sync = SyncConfig{
		SettleDelay: parseDuration(v.GetString("SYNC_SETTLE_DELAY"), time.Second),
		Workers:     v.GetInt("SYNC_WORKERS"),
	}

	cfg.Compose = ComposeConfig{
		SessionTTL:      parseDuration(v.GetString("COMPOSE_SESSION_TTL"), 30*time.Minute),
		CleanupInterval: parseDuration(v.GetString("COMPOSE_CLEANUP_INTERVAL"), 5*time.Minute),
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

	v.SetDefault("CANVAS_WEBHOOK_BASE_URL", "http://localhost:5678/webhook/canvas")
	v.SetDefault("CANVAS_WEBHOOK_TIMEOUT", "15s")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_COURSES_TTL", "2m")
	v.SetDefault("CACHE_TOKEN_STATUS_TTL", "5m")

	v.SetDefault("SYNC_SETTLE_DELAY", "1s")
	v.SetDefault("SYNC_WORKERS", 2)

	v.SetDefault("COMPOSE_SESSION_TTL", "30m")
	v.SetDefault("COMPOSE_CLEANUP_INTERVAL", "5m")

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
