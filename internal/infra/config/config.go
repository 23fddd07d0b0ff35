package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// StorageBackend names a concrete record store implementation.
type StorageBackend string

const (
	StoragePostgres StorageBackend = "postgres"
	StorageSQLite   StorageBackend = "sqlite"
	StorageRedis    StorageBackend = "redis"
	StorageMemory   StorageBackend = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken        string
	WishesChatID         int64 // Chat that receives birthday greetings
	EntryChatID          int64 // If non-zero, register/update/delete are only accepted here
	StorageBackend       StorageBackend
	DatabaseURL          string
	SQLitePath           string
	RedisURL             string
	Location             *time.Location // Reference clock for "today"
	ScanCronSpec         string
	NotifyTimeout        time.Duration
	UpcomingDefaultLimit int
	BirthdayImageURL     string
	MetricsAddr          string // Empty disables the metrics server
	LogLevel             string
	Environment          string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	wishesIDStr := os.Getenv("WISHES_CHAT_ID")
	if wishesIDStr == "" {
		return nil, fmt.Errorf("WISHES_CHAT_ID is not set")
	}
	cfg.WishesChatID, err = strconv.ParseInt(wishesIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WISHES_CHAT_ID: %w", err)
	}

	if entryIDStr := os.Getenv("ENTRY_CHAT_ID"); entryIDStr != "" {
		cfg.EntryChatID, err = strconv.ParseInt(entryIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ENTRY_CHAT_ID: %w", err)
		}
	}

	cfg.StorageBackend = StorageBackend(strings.ToLower(os.Getenv("STORAGE_BACKEND")))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StoragePostgres
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "data/birthdays.db"
	}
	switch cfg.StorageBackend {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is not set")
		}
	case StorageSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.ScanCronSpec = os.Getenv("SCAN_CRON_SPEC")
	if cfg.ScanCronSpec == "" {
		cfg.ScanCronSpec = "0 9 * * *" // Default: 9 AM daily
	}

	cfg.NotifyTimeout = 15 * time.Second
	if v := os.Getenv("NOTIFY_TIMEOUT"); v != "" {
		cfg.NotifyTimeout, err = time.ParseDuration(v)
		if err != nil || cfg.NotifyTimeout <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT %q", v)
		}
	}

	cfg.UpcomingDefaultLimit = 5
	if v := os.Getenv("UPCOMING_DEFAULT_LIMIT"); v != "" {
		cfg.UpcomingDefaultLimit, err = strconv.Atoi(v)
		if err != nil || cfg.UpcomingDefaultLimit <= 0 {
			return nil, fmt.Errorf("invalid UPCOMING_DEFAULT_LIMIT %q", v)
		}
	}

	cfg.BirthdayImageURL = os.Getenv("BIRTHDAY_IMAGE_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
