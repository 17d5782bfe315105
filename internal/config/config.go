package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Storage backends for the session token
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds client configuration
type Config struct {
	APIBase      string
	Storage      string
	StateFile    string
	RedisURL     string
	RedisPrefix  string
	HTTPTimeout  time.Duration
	DebugMode    bool
	LogDev       bool
	OTELEnabled  bool
	OTELEndpoint string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		APIBase:      getEnv("BLOG_API_BASE", "http://localhost:8080/api"),
		Storage:      getEnv("BLOG_STORAGE", StorageFile),
		StateFile:    getEnv("BLOG_STATE_FILE", defaultStateFile()),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:  getEnv("BLOG_REDIS_PREFIX", "smart-blog:"),
		HTTPTimeout:  getEnvDuration("BLOG_HTTP_TIMEOUT", 0),
		DebugMode:    getEnvBool("BLOG_DEBUG", false),
		LogDev:       getEnvBool("BLOG_LOG_DEV", false),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.Storage {
	case StorageFile:
		if cfg.StateFile == "" {
			return nil, fmt.Errorf("BLOG_STATE_FILE is required for file storage")
		}
	case StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("BLOG_STORAGE must be one of %s, %s, %s; got %q", StorageFile, StorageRedis, StorageMemory, cfg.Storage)
	}

	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("BLOG_HTTP_TIMEOUT must not be negative")
	}

	return cfg, nil
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "smart-blog", "state.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
