package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"boothfair/internal/cache"
	"boothfair/internal/database"
	"boothfair/internal/external"
	"boothfair/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Database      database.Config
	Redis         cache.Config
	NATS          messaging.Config
	VendorAPI     external.VendorAPIConfig
	Elasticsearch ElasticsearchConfig
	Booths        BoothsConfig
	Promo         PromoConfig
	Drafts        DraftsConfig
}

// BoothsConfig controls seat-map polling and presentation
type BoothsConfig struct {
	PollInterval          time.Duration
	PollTimeout           time.Duration
	HeldShowsAsBooked     bool
	LayoutRefreshInterval time.Duration
}

// PromoConfig controls promo table refreshes
type PromoConfig struct {
	RefreshInterval time.Duration
	SessionTTL      time.Duration
}

// DraftsConfig controls form draft persistence
type DraftsConfig struct {
	Debounce time.Duration
	TTL      time.Duration
}

// Load загружает конфигурацию из переменных окружения. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "boothfair"),
			Password:           getEnv("DB_PASSWORD", "boothfair"),
			DBName:             getEnv("DB_NAME", "boothfair"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "boothfair"),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "boothfair"),
			ClientID:  getEnv("NATS_CLIENT_ID", "boothfair-api"),
			Enabled:   getEnvBool("NATS_ENABLED", true),
		},

		VendorAPI: external.VendorAPIConfig{
			BaseURL: getEnv("VENDOR_API_URL", "http://localhost:3000"),
			Token:   os.Getenv("VENDOR_API_TOKEN"),
			Timeout: time.Duration(getEnvInt("VENDOR_API_TIMEOUT_SEC", 10)) * time.Second,
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Booths: BoothsConfig{
			PollInterval:          getEnvDuration("BOOTH_POLL_INTERVAL", 10*time.Second),
			PollTimeout:           getEnvDuration("BOOTH_POLL_TIMEOUT", 8*time.Second),
			HeldShowsAsBooked:     getEnvBool("HELD_SHOWS_AS_BOOKED", false),
			LayoutRefreshInterval: getEnvDuration("LAYOUT_REFRESH_INTERVAL", time.Minute),
		},

		Promo: PromoConfig{
			RefreshInterval: getEnvDuration("PROMO_REFRESH_INTERVAL", time.Minute),
			SessionTTL:      getEnvDuration("SESSION_TTL", 2*time.Hour),
		},

		Drafts: DraftsConfig{
			Debounce: getEnvDuration("DRAFT_DEBOUNCE", time.Second),
			TTL:      getEnvDuration("DRAFT_TTL", 7*24*time.Hour),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
