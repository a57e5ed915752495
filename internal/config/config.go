// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	Port     int
	DevMode  bool
	LogLevel string

	CacheDBPath          string // empty means in-memory
	CacheCleanupSchedule string

	YahooBaseURL   string
	YahooRateLimit float64 // requests per second
	YahooTimeout   time.Duration

	HistoryCacheTTL time.Duration
	QuoteCacheTTL   time.Duration

	DisplayCurrency     string
	DefaultStopLoss     float64
	DefaultLookbackDays int
	PortfolioFile       string

	// DefaultHoldings prefill the dashboard and back the CLI when no
	// holdings are given.
	DefaultHoldings []domain.Holding
}

// portfolioFile is the TOML layout of PORTFOLIO_FILE.
type portfolioFile struct {
	Holdings []fileHolding `toml:"holdings"`
}

// fileHolding is one [[holdings]] entry. A nil StopLossPercent means the
// key was omitted; an explicit 0 alerts on any decline.
type fileHolding struct {
	Ticker          string   `toml:"ticker"`
	InvestedAmount  float64  `toml:"invested_amount"`
	StopLossPercent *float64 `toml:"stop_loss_percent"`
}

// builtinHoldings is used when no portfolio file is configured.
var builtinHoldings = []fileHolding{
	{Ticker: "ALV.DE", InvestedAmount: 2250},
	{Ticker: "SAP.DE", InvestedAmount: 2250},
	{Ticker: "AMZN", InvestedAmount: 3000},
	{Ticker: "AAPL", InvestedAmount: 3000},
	{Ticker: "NVDA", InvestedAmount: 2250},
	{Ticker: "MSFT", InvestedAmount: 2250},
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnvAsInt("GO_PORT", 8001),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CacheDBPath:          getEnv("CACHE_DB_PATH", ""),
		CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@hourly"),
		YahooBaseURL:         getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		YahooRateLimit:       getEnvAsFloat("YAHOO_RATE_LIMIT", 2),
		YahooTimeout:         getEnvAsDuration("YAHOO_TIMEOUT", 30*time.Second),
		HistoryCacheTTL:      getEnvAsDuration("HISTORY_CACHE_TTL", 6*time.Hour),
		QuoteCacheTTL:        getEnvAsDuration("QUOTE_CACHE_TTL", time.Minute),
		DisplayCurrency:      getEnv("DISPLAY_CURRENCY", "EUR"),
		DefaultStopLoss:      getEnvAsFloat("DEFAULT_STOP_LOSS", 10),
		DefaultLookbackDays:  getEnvAsInt("DEFAULT_LOOKBACK_DAYS", 365),
		PortfolioFile:        getEnv("PORTFOLIO_FILE", ""),
	}

	holdings, err := LoadHoldings(cfg.PortfolioFile, cfg.DefaultStopLoss)
	if err != nil {
		return nil, err
	}
	cfg.DefaultHoldings = holdings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadHoldings reads the default portfolio from a TOML file. An empty path
// yields the built-in portfolio. Holdings without a stop-loss get defaultStopLoss.
//
//	[[holdings]]
//	ticker = "AAPL"
//	invested_amount = 3000
//	stop_loss_percent = 8
func LoadHoldings(path string, defaultStopLoss float64) ([]domain.Holding, error) {
	entries := builtinHoldings

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read portfolio file %s: %w", path, err)
		}

		var file portfolioFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse portfolio file %s: %w", path, err)
		}
		entries = file.Holdings
	}

	holdings := make([]domain.Holding, 0, len(entries))
	for _, e := range entries {
		h := domain.Holding{
			Ticker:          domain.NormalizeTicker(e.Ticker),
			InvestedAmount:  e.InvestedAmount,
			StopLossPercent: defaultStopLoss,
		}
		if e.StopLossPercent != nil {
			h.StopLossPercent = *e.StopLossPercent
		}
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("invalid holding in portfolio file %s: %w", path, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// Validate checks configuration values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.YahooBaseURL == "" {
		return fmt.Errorf("YAHOO_BASE_URL is required")
	}
	if c.YahooRateLimit <= 0 {
		return fmt.Errorf("YAHOO_RATE_LIMIT must be positive")
	}
	if c.DefaultStopLoss < 0 || c.DefaultStopLoss > 100 {
		return fmt.Errorf("DEFAULT_STOP_LOSS must be between 0 and 100, got %v", c.DefaultStopLoss)
	}
	if c.DefaultLookbackDays <= 0 {
		return fmt.Errorf("DEFAULT_LOOKBACK_DAYS must be positive")
	}
	if len(c.DefaultHoldings) > domain.MaxHoldings {
		return fmt.Errorf("default portfolio has %d holdings, at most %d allowed", len(c.DefaultHoldings), domain.MaxHoldings)
	}
	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
