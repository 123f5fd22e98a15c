package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port    string
	Env     string
	LogLevel string

	// Remote clinic API. All appointment, doctor, and login traffic goes
	// through this single base URL.
	ClinicAPIBaseURL string
	ClinicAPITimeout time.Duration

	// Session persistence.
	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool
	SessionSigningSecret string

	NotificationTTL time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClinicAPIBaseURL: getEnv("CLINIC_API_BASE_URL", "http://localhost:3000"),
		ClinicAPITimeout: getEnvAsDuration("CLINIC_API_TIMEOUT", 20*time.Second),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		SessionSigningSecret: getEnv("SESSION_SIGNING_SECRET", ""),

		NotificationTTL: getEnvAsDuration("NOTIFICATION_TTL", 5*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
