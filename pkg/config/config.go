package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Classifier (Groq) configuration
	Groq struct {
		APIKey  string
		Model   string
		BaseURL string
		Timeout time.Duration
	}

	// Theming pipeline limits
	Theming struct {
		MaxAttempts  int
		MaxBulkLimit int
		BulkWorkers  int
	}

	// Redis configuration (stats cache)
	Redis struct {
		Enabled bool
		Addr    string
		TTL     time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates the Config instance from environment variables. Uses a
// singleton so every component reads the same values.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8080")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "feedback-insights")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
		instance.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Classifier config. The API key may also come from the secrets
		// provider; an empty value here is overridden at startup.
		instance.Groq.APIKey = getEnvString("GROQ_API_KEY", "")
		instance.Groq.Model = getEnvString("GROQ_MODEL", "llama-3.1-8b-instant")
		instance.Groq.BaseURL = getEnvString("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
		instance.Groq.Timeout = getEnvDuration("GROQ_TIMEOUT", 25*time.Second)

		// Theming limits
		instance.Theming.MaxAttempts = getEnvInt("THEME_MAX_ATTEMPTS", 3)
		instance.Theming.MaxBulkLimit = getEnvInt("THEME_MAX_BULK_LIMIT", 100)
		instance.Theming.BulkWorkers = getEnvInt("THEME_BULK_WORKERS", 4)

		// Redis config
		instance.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
		instance.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
		instance.Redis.TTL = getEnvDuration("STATS_CACHE_TTL", 30*time.Second)
	})

	return instance
}

// Get returns the singleton Config instance, creating it if needed.
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
