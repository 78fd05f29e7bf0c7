package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	UseMemoryStore bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// BusinessTimezone is the single timezone rule windows and calendar days are evaluated in.
	BusinessTimezone string

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	PublicRateLimitRPS   float64
	PublicRateLimitBurst int

	// Booking defaults, used until an administrator saves settings.
	DefaultBufferMinutes   int
	DefaultMaxAdvanceDays  int
	DefaultMinAdvanceHours int
	SlotStrideMinutes      int

	// Fee policy defaults.
	CancellationWindowHours int
	LateCancellationPercent int
	PastCancellationPercent int
	RescheduleWindowHours   int
	RescheduleFeeCents      int64

	// Event delivery
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	EventsQueueURL      string
	OutboxPollInterval  time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "America/Sao_Paulo"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		PublicRateLimitRPS:   getEnvAsFloat("PUBLIC_RATE_LIMIT_RPS", 5),
		PublicRateLimitBurst: getEnvAsInt("PUBLIC_RATE_LIMIT_BURST", 20),

		DefaultBufferMinutes:   getEnvAsInt("DEFAULT_BUFFER_MINUTES", 15),
		DefaultMaxAdvanceDays:  getEnvAsInt("DEFAULT_MAX_ADVANCE_DAYS", 60),
		DefaultMinAdvanceHours: getEnvAsInt("DEFAULT_MIN_ADVANCE_HOURS", 2),
		SlotStrideMinutes:      getEnvAsInt("SLOT_STRIDE_MINUTES", 30),

		CancellationWindowHours: getEnvAsInt("CANCELLATION_WINDOW_HOURS", 24),
		LateCancellationPercent: getEnvAsInt("LATE_CANCELLATION_PERCENT", 50),
		PastCancellationPercent: getEnvAsInt("PAST_CANCELLATION_PERCENT", 100),
		RescheduleWindowHours:   getEnvAsInt("RESCHEDULE_WINDOW_HOURS", 12),
		RescheduleFeeCents:      int64(getEnvAsInt("RESCHEDULE_FEE_CENTS", 3000)),

		AWSRegion:           getEnv("AWS_REGION", "sa-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EventsQueueURL:      getEnv("EVENTS_QUEUE_URL", ""),
		OutboxPollInterval:  getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
	}
}

// Location resolves BusinessTimezone, falling back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
