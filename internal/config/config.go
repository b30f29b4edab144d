package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store backends
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Upload backends
const (
	UploadLocal = "local"
	UploadR2    = "r2"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`
	PublicBaseURL   string        `json:"public_base_url"`

	// Content sources
	FetchTimeout        time.Duration `json:"fetch_timeout"`
	DisplayTimezone     string        `json:"display_timezone"`
	ImageRepairPatterns []string      `json:"image_repair_patterns"`
	CalendarAPIKey      string        `json:"-"`
	CalendarBaseURL     string        `json:"calendar_base_url"`
	CalendarHorizonDays int           `json:"calendar_horizon_days"`

	// Persistence
	StoreBackend string `json:"store_backend"`
	StoragePath  string `json:"storage_path"`

	// Redis configuration
	RedisURL       string `json:"redis_url"`
	RedisPrefix    string `json:"redis_prefix"`
	RefreshChannel string `json:"refresh_channel"`

	// Uploads
	UploadBackend  string `json:"upload_backend"`
	UploadsDir     string `json:"uploads_dir"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket"`
	R2AccountID string `json:"r2_account_id"`
	R2PublicURL string `json:"r2_public_url"`

	// Scheduled refresh, empty disables it
	RefreshCron string `json:"refresh_cron"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`

	// Security
	AdminAPIKey string `json:"-"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "3000"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		// Content sources
		FetchTimeout:        getEnvAsDuration("FETCH_TIMEOUT", 20*time.Second),
		DisplayTimezone:     getEnv("DISPLAY_TIMEZONE", "America/Sao_Paulo"),
		ImageRepairPatterns: getEnvAsList("FEED_IMAGE_REPAIR_PATTERNS", []string{"fct.ufg.brhttp", "ufg.brhttp"}),
		CalendarAPIKey:      getEnv("GOOGLE_CALENDAR_API_KEY", ""),
		CalendarBaseURL:     getEnv("GOOGLE_CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),
		CalendarHorizonDays: getEnvAsInt("CALENDAR_HORIZON_DAYS", 60),

		// Persistence
		StoreBackend: getEnv("STORE_BACKEND", StoreFile),
		StoragePath:  getEnv("STORAGE_PATH", "./data"),

		// Redis configuration
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPrefix:    getEnv("REDIS_PREFIX", "signage:"),
		RefreshChannel: getEnv("REFRESH_CHANNEL", "signage:refresh"),

		// Uploads
		UploadBackend:  getEnv("UPLOAD_BACKEND", UploadLocal),
		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20), // 10MB

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "signage"),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2PublicURL: strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),

		RefreshCron: getEnv("REFRESH_CRON", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile:
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.UploadBackend {
	case UploadLocal:
	case UploadR2:
		if c.R2AccessKey == "" || c.R2SecretKey == "" {
			return errors.New("R2_ACCESS_KEY and R2_SECRET_ACCESS_KEY are required when UPLOAD_BACKEND is r2")
		}
		if c.R2Endpoint == "" && c.R2AccountID == "" {
			return errors.New("R2_ENDPOINT or CLOUDFLARE_ACCOUNT_ID is required when UPLOAD_BACKEND is r2")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend)
	}

	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}

	if c.CalendarHorizonDays <= 0 {
		return fmt.Errorf("CALENDAR_HORIZON_DAYS must be positive, got %d", c.CalendarHorizonDays)
	}

	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return fmt.Errorf("invalid REFRESH_CRON %q: %w", c.RefreshCron, err)
		}
	}

	return nil
}

// Location returns the display timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// R2EndpointURL returns the S3 endpoint for the configured R2 account
func (c *Config) R2EndpointURL() string {
	if c.R2Endpoint != "" {
		return c.R2Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(name string, defaultVal []string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
