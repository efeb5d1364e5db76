package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Odds provider
	OddsAPIKey  string        `envconfig:"ODDS_API_KEY" required:"true"`
	OddsBaseURL string        `envconfig:"ODDS_BASE_URL" default:"https://api.the-odds-api.com/v4"`
	OddsTimeout time.Duration `envconfig:"ODDS_TIMEOUT" default:"15s"`
	SportKey    string        `envconfig:"SPORT_KEY" default:"baseball_mlb"`

	// Statistics provider
	StatsBaseURL string        `envconfig:"STATS_BASE_URL" default:"https://statsapi.mlb.com/api/v1"`
	StatsTimeout time.Duration `envconfig:"STATS_TIMEOUT" default:"20s"`

	// Narrative context provider
	ContextAPIKey  string        `envconfig:"CONTEXT_API_KEY" default:""`
	ContextBaseURL string        `envconfig:"CONTEXT_BASE_URL" default:"https://api.perplexity.ai"`
	ContextTimeout time.Duration `envconfig:"CONTEXT_TIMEOUT" default:"60s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"mlbpicks"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"mlbpicks_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis (generation marker durability)
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Generation schedule
	BusinessTimezone string `envconfig:"BUSINESS_TIMEZONE" default:"America/New_York"`
	TriggerHour      int    `envconfig:"TRIGGER_HOUR" default:"10"`
	TriggerMinute    int    `envconfig:"TRIGGER_MINUTE" default:"0"`
	GateCheckCron    string `envconfig:"GATE_CHECK_CRON" default:"*/5 * * * *"`

	// One-off trigger-time overrides for specific dates, e.g.
	// "2025-07-04=09:00,2025-10-01=14:30"
	TriggerOverrides string `envconfig:"TRIGGER_OVERRIDES" default:""`

	// Pipeline
	ConfidenceThreshold float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.75"`
	InterGameDelay      time.Duration `envconfig:"INTER_GAME_DELAY" default:"2s"`

	// Response cache
	CacheCapacity int           `envconfig:"CACHE_CAPACITY" default:"100"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"600s"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be between 0 and 1")
	}

	if c.TriggerHour < 0 || c.TriggerHour > 23 || c.TriggerMinute < 0 || c.TriggerMinute > 59 {
		return fmt.Errorf("invalid trigger time %02d:%02d", c.TriggerHour, c.TriggerMinute)
	}

	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}

	if _, err := c.ParseTriggerOverrides(); err != nil {
		return fmt.Errorf("invalid TRIGGER_OVERRIDES: %w", err)
	}

	return nil
}

// Location returns the business timezone location
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		// Validate rejects unknown zones before this is reachable
		return time.UTC
	}
	return loc
}

// ParseTriggerOverrides parses the TRIGGER_OVERRIDES string into a
// date -> "HH:MM" map
func (c *Config) ParseTriggerOverrides() (map[string]string, error) {
	overrides := make(map[string]string)
	if strings.TrimSpace(c.TriggerOverrides) == "" {
		return overrides, nil
	}

	for _, pair := range strings.Split(c.TriggerOverrides, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("override %q is not date=HH:MM", pair)
		}
		date, clock := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("override date %q: %w", date, err)
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return nil, fmt.Errorf("override time %q: %w", clock, err)
		}
		overrides[date] = clock
	}

	return overrides, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
