package worker

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds configuration for the scoring pool
type Config struct {
	Workers        int
	Seed           uint64
	CacheSize      int
	LogLevel       string
	LogFormat      string
	JaegerEndpoint string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	config := &Config{
		Workers:        getEnvInt("SRFIT_WORKERS", runtime.GOMAXPROCS(0)),
		Seed:           getEnvUint64("SRFIT_SEED", 0),
		CacheSize:      getEnvInt("SRFIT_CACHE_SIZE", 4096),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvUint64 gets an unsigned integer environment variable with a default value
func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}
