package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/common"
	"github.com/i474232898/weatherapi-go/internal/weather"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type AppConfig struct {
	WeatherAPIKey     string
	WeatherAPIBaseURL string

	// RequestTimeout bounds each upstream call made on behalf of a gateway request.
	RequestTimeout time.Duration

	// WatchInterval controls how often alerts are polled for each location.
	WatchInterval time.Duration

	// Locations whose alerts are watched.
	Locations []weather.Location

	// Alert history storage.
	StoreDriver     string
	StorePath       string
	StoreMaxHistory int           // max number of alerts per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of alerts (0 = unlimited)

	LogLevel log.Level

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.WithField("err", err).Info("config: no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.WeatherAPIBaseURL = getenvDefault("WEATHERAPI_BASE_URL", weatherapi.DefaultBaseURL)

	timeout, err := time.ParseDuration(getenvDefault("REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = timeout

	// Watch interval: default 15 minutes.
	interval, err := time.ParseDuration(getenvDefault("WATCH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_INTERVAL: %w", err)
	}
	cfg.WatchInterval = interval

	// Locations are ';'-separated because a single q may itself contain commas ("lat,lon").
	for _, q := range common.SplitList(os.Getenv("WATCH_LOCATIONS"), ";") {
		cfg.Locations = append(cfg.Locations, weather.Location{Query: q})
	}

	cfg.StoreDriver = getenvDefault("STORE_DRIVER", StoreMemory)
	if cfg.StoreDriver != StoreMemory && cfg.StoreDriver != StoreSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, StoreMemory, StoreSQLite)
	}
	cfg.StorePath = getenvDefault("STORE_PATH", "alerts.db")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 200)

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	level, err := log.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
