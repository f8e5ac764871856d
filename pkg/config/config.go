package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else; components
// receive the values they need by injection.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	CacheDir   string
	ResultsDir string

	// Database (optional; the Postgres result sink is enabled when URL is set)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data fetching
	Fetch FetchConfig

	// Analysis
	Workers int // orchestrator worker pool width

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // when set, logs rotate to this file as well

	// External sources
	Eastmoney EastmoneyConfig
	Sina      SinaConfig
}

// FetchConfig holds retry and date-window settings for the data fetcher.
type FetchConfig struct {
	MaxRetries     int
	BaseRetryDelay time.Duration
	StartDate      string // default history window start, YYYY-MM-DD
	CacheMaxAge    time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EastmoneyConfig holds the market-data source configuration.
type EastmoneyConfig struct {
	BaseURL        string
	QuoteBoardURL  string
	RatePerSecond  float64
	RequestTimeout time.Duration
}

// SinaConfig holds the trading-calendar source configuration.
type SinaConfig struct {
	CalendarURL string
}

// Load reads configuration from environment variables.
// This function is the only caller of os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8085"),
		Env:  getEnv("ENV", "development"),

		CacheDir:   getEnv("CACHE_DIR", "cache/stock_data"),
		ResultsDir: getEnv("RESULTS_DIR", "results"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Fetch: FetchConfig{
			MaxRetries:     getEnvAsInt("FETCH_MAX_RETRIES", 3),
			BaseRetryDelay: getEnvAsDuration("FETCH_BASE_RETRY_DELAY", "2s"),
			StartDate:      getEnv("FETCH_START_DATE", "2024-01-01"),
			CacheMaxAge:    getEnvAsDuration("CACHE_MAX_AGE", "5m"),
		},

		Workers: getEnvAsInt("ANALYSIS_WORKERS", 4),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		Eastmoney: EastmoneyConfig{
			BaseURL:        getEnv("EASTMONEY_BASE_URL", "https://push2his.eastmoney.com"),
			QuoteBoardURL:  getEnv("EASTMONEY_QUOTE_BOARD_URL", "https://quote.eastmoney.com/center/gridlist.html"),
			RatePerSecond:  getEnvAsFloat("EASTMONEY_RATE_PER_SECOND", 2.0),
			RequestTimeout: getEnvAsDuration("EASTMONEY_REQUEST_TIMEOUT", "30s"),
		},

		Sina: SinaConfig{
			CalendarURL: getEnv("SINA_CALENDAR_URL", "https://finance.sina.com.cn/realstock/company/klc_td_sh.txt"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}

	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must not be negative")
	}

	if _, err := time.Parse("2006-01-02", c.Fetch.StartDate); err != nil {
		return fmt.Errorf("FETCH_START_DATE must be YYYY-MM-DD: %w", err)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
