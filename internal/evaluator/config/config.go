package config

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-calls/pkg/config"
)

const (
	ProviderEOD    = "eod"
	ProviderAlpaca = "alpaca"
)

// PriceAPI holds the configuration for the daily price provider.
type PriceAPI struct {
	Provider            string `mapstructure:"provider"`
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	APISecret           string `mapstructure:"api_secret"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Evaluation holds the tunables of the evaluation pipeline.
type Evaluation struct {
	MaxDailyChecks     int            `mapstructure:"max_daily_checks"`
	FetchTimeout       time.Duration  `mapstructure:"fetch_timeout"`
	FetchConcurrency   int            `mapstructure:"fetch_concurrency"`
	FetchCacheTTL      time.Duration  `mapstructure:"fetch_cache_ttl"`
	BatchSize          int            `mapstructure:"batch_size"`
	MaxRetries         int            `mapstructure:"max_retries"`
	RetryBackoff       time.Duration  `mapstructure:"retry_backoff"`
	HistoryCap         int            `mapstructure:"history_cap"`
	MarketCloseHour    int            `mapstructure:"market_close_hour"`
	ExchangeCloseHours map[string]int `mapstructure:"exchange_close_hours"`
	TimeZone           string         `mapstructure:"time_zone"`
}

// Consumer holds the Redis stream consumer configuration.
type Consumer struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	MaxIdleDuration time.Duration `mapstructure:"max_idle_duration"`
	MaxRetry        int           `mapstructure:"max_retry"`
}

// Config holds the full configuration for the evaluation service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Telegram   config.Telegram `mapstructure:"telegram"`
	PriceAPI   PriceAPI        `mapstructure:"price_api"`
	Evaluation Evaluation      `mapstructure:"evaluation"`
	Consumer   Consumer        `mapstructure:"consumer"`
}

// Defaults returns the values applied before the config file and environment are read.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                         "evaluation-service",
		"logger.level":                     "info",
		"logger.encoding":                  "json",
		"api.port":                         8080,
		"price_api.provider":               ProviderEOD,
		"price_api.base_url":               "https://eodhd.com/api",
		"price_api.max_request_per_minute": 60,
		"evaluation.max_daily_checks":      100,
		"evaluation.fetch_timeout":         "12s",
		"evaluation.fetch_concurrency":     1,
		"evaluation.fetch_cache_ttl":       "5m",
		"evaluation.batch_size":            100,
		"evaluation.max_retries":           2,
		"evaluation.retry_backoff":         "1s",
		"evaluation.history_cap":           365,
		"evaluation.market_close_hour":     16,
		"evaluation.time_zone":             "UTC",
		"consumer.enabled":                 true,
		"consumer.timeout":                 "2m",
		"consumer.retry_interval":          "1m",
		"consumer.max_idle_duration":       "5m",
		"consumer.max_retry":               3,
		"redis.stream_max_len":             1000,
		"database.ssl_mode":                "disable",
		"database.max_idle_conns":          5,
		"database.max_open_conns":          20,
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	e := c.Evaluation
	if e.MaxDailyChecks <= 0 {
		return fmt.Errorf("evaluation.max_daily_checks must be positive, got %d", e.MaxDailyChecks)
	}
	if e.BatchSize <= 0 {
		return fmt.Errorf("evaluation.batch_size must be positive, got %d", e.BatchSize)
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("evaluation.max_retries must not be negative, got %d", e.MaxRetries)
	}
	if e.HistoryCap <= 0 {
		return fmt.Errorf("evaluation.history_cap must be positive, got %d", e.HistoryCap)
	}
	if e.MarketCloseHour < 0 || e.MarketCloseHour > 23 {
		return fmt.Errorf("evaluation.market_close_hour must be between 0 and 23, got %d", e.MarketCloseHour)
	}
	if e.FetchTimeout <= 0 {
		return fmt.Errorf("evaluation.fetch_timeout must be positive")
	}
	switch strings.ToLower(c.PriceAPI.Provider) {
	case "", ProviderEOD, ProviderAlpaca:
	default:
		return fmt.Errorf("unknown price_api.provider %q", c.PriceAPI.Provider)
	}
	return nil
}

// Load loads the evaluation service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults()); err != nil {
		return nil, err
	}
	cfg.PriceAPI.Provider = strings.ToLower(cfg.PriceAPI.Provider)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
