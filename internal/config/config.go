package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	// Telegram
	TelegramToken string

	// Database
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Marketplace API
	MarketplaceAPIURL     string
	MarketplaceAPITimeout time.Duration

	// Stores
	RejectStaleFetches bool
	AnalyticsCacheTTL  time.Duration

	// Bot settings
	CheckSchedule   string
	MaxJobsPerCheck int

	// Logging
	LogLevel string
}

// Load reads the configuration from the environment. A .env file in the
// working directory, if present, is loaded first; variables already set in
// the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		// Defaults
		RedisAddr:             "localhost:6379",
		MarketplaceAPIURL:     "http://localhost:5000/api",
		MarketplaceAPITimeout: 30 * time.Second,
		AnalyticsCacheTTL:     10 * time.Minute,
		CheckSchedule:         "@every 5m",
		MaxJobsPerCheck:       10,
		LogLevel:              "info",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if apiURL := os.Getenv("MARKETPLACE_API_URL"); apiURL != "" {
		cfg.MarketplaceAPIURL = apiURL
	}

	if timeout := os.Getenv("MARKETPLACE_API_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid MARKETPLACE_API_TIMEOUT: %w", err)
		}
		cfg.MarketplaceAPITimeout = d
	}

	if reject := os.Getenv("REJECT_STALE_FETCHES"); reject != "" {
		b, err := strconv.ParseBool(reject)
		if err != nil {
			return nil, fmt.Errorf("invalid REJECT_STALE_FETCHES: %w", err)
		}
		cfg.RejectStaleFetches = b
	}

	if ttl := os.Getenv("ANALYTICS_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid ANALYTICS_CACHE_TTL: %w", err)
		}
		cfg.AnalyticsCacheTTL = d
	}

	if schedule := os.Getenv("CHECK_SCHEDULE"); schedule != "" {
		cfg.CheckSchedule = schedule
	}

	if maxJobs := os.Getenv("MAX_JOBS_PER_CHECK"); maxJobs != "" {
		n, err := strconv.Atoi(maxJobs)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_JOBS_PER_CHECK: %w", err)
		}
		cfg.MaxJobsPerCheck = n
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("telegram token is empty")
	}

	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.MarketplaceAPITimeout <= 0 {
		return fmt.Errorf("marketplace API timeout must be positive: %v", c.MarketplaceAPITimeout)
	}

	if c.AnalyticsCacheTTL <= 0 {
		return fmt.Errorf("analytics cache TTL must be positive: %v", c.AnalyticsCacheTTL)
	}

	if _, err := cron.ParseStandard(c.CheckSchedule); err != nil {
		return fmt.Errorf("invalid check schedule %q: %w", c.CheckSchedule, err)
	}

	if c.MaxJobsPerCheck < 1 || c.MaxJobsPerCheck > 100 {
		return fmt.Errorf("max jobs per check must be between 1 and 100")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}
