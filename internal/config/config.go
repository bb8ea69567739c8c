// Package config provides configuration management functionality.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool // in-memory cache and bus instead of Redis/Kafka

	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	FetchTimeout time.Duration
	CacheTTL     time.Duration

	RetryMaxAttempts int
	RetryBackoff     []time.Duration

	// Per-provider poll interval overrides, keyed by provider name.
	PollOverrides map[string]time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 3000),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3001"}),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		KafkaBrokers: getEnvAsList("KAFKA_BROKERS", []string{"kafka:9092"}),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "opportunities"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "yield-group"),

		FetchTimeout: getEnvAsMillis("FETCH_TIMEOUT_MS", 5*time.Second),
		CacheTTL:     time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBackoff: getEnvAsMillisList("RETRY_BACKOFF_MS", []time.Duration{
			5 * time.Second,
			10 * time.Second,
			15 * time.Second,
		}),

		PollOverrides: map[string]time.Duration{},
	}

	// Optional per-provider poll interval overrides.
	for name, key := range map[string]string{
		"Lido":      "POLL_INTERVAL_LIDO_MS",
		"Marinade":  "POLL_INTERVAL_MARINADE_MS",
		"DeFiLlama": "POLL_INTERVAL_DEFILLAMA_MS",
	} {
		if interval := getEnvAsMillis(key, 0); interval > 0 {
			cfg.PollOverrides[name] = interval
		}
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsMillisList(key string, defaultValue []time.Duration) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		ms, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || ms < 0 {
			return defaultValue
		}
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
