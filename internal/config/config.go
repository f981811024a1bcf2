// Package config centralizes environment-variable configuration for the
// fusefeed server into one typed loader.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server's runtime configuration.
type Config struct {
	Port               string
	ConfigRoot         string
	MaxWorkers         int
	FetchTimeout       time.Duration
	CoordinatorTimeout time.Duration
}

// Load reads configuration from environment variables, falling back to
// documented defaults for anything unset.
func Load() Config {
	return Config{
		Port:               getEnv("FUSEFEED_PORT", "8080"),
		ConfigRoot:         getEnv("FUSEFEED_CONFIG_ROOT", "./config"),
		MaxWorkers:         getEnvInt("FUSEFEED_MAX_WORKERS", 5),
		FetchTimeout:       getEnvDuration("FUSEFEED_FETCH_TIMEOUT", 10*time.Second),
		CoordinatorTimeout: getEnvDuration("FUSEFEED_COORDINATOR_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
