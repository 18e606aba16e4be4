package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database       DatabaseConfig
	Gemini         GeminiConfig
	Categorization CategorizationConfig
	Import         ImportConfig
	Alerts         AlertsConfig
	Observability  ObservabilityConfig
	Log            LogConfig
	Location       *time.Location
}

// GeminiConfig enables the AI categorization fallback when APIKey is set.
type GeminiConfig struct {
	APIKey string
	Model  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// URL overrides the individual fields when set.
	URL string
}

type CategorizationConfig struct {
	AITimeout           time.Duration
	AIRequestsPerSecond float64
	AIBurst             int
}

type ImportConfig struct {
	ReportDir string
}

type AlertsConfig struct {
	Schedule           string
	WebhookURL         string
	Currency           string
	BigTicketThreshold string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment after applying any .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			URL:      getEnv("DATABASE_URL", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Categorization: CategorizationConfig{
			AITimeout:           getEnvAsDuration("AI_TIMEOUT", 10*time.Second),
			AIRequestsPerSecond: getEnvAsFloat("AI_REQUESTS_PER_SECOND", 1),
			AIBurst:             getEnvAsInt("AI_BURST", 3),
		},
		Import: ImportConfig{
			ReportDir: getEnv("IMPORT_REPORT_DIR", "data/reports"),
		},
		Alerts: AlertsConfig{
			Schedule:           getEnv("ALERTS_SCHEDULE", "0 21 * * *"),
			WebhookURL:         getEnv("ALERTS_WEBHOOK_URL", ""),
			Currency:           strings.ToUpper(getEnv("CURRENCY", "SGD")),
			BigTicketThreshold: getEnv("BIG_TICKET_THRESHOLD", "100"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	loc, err := time.LoadLocation(getEnv("LEDGER_TIMEZONE", "Asia/Singapore"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.Categorization.AITimeout <= 0 {
		return nil, errors.New("AI_TIMEOUT must be positive")
	}

	return cfg, nil
}

// AIEnabled reports whether an API key for the AI fallback is configured.
func (c *Config) AIEnabled() bool {
	return c.Gemini.APIKey != ""
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
