package config

import (
	"fmt"
	"time"

	"golang-stock-calls/pkg/config"

	"github.com/robfig/cron/v3"
)

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	CronExpression  string        `mapstructure:"cron_expression"`
	TimeZone        string        `mapstructure:"time_zone"`
	PublishTimeout  time.Duration `mapstructure:"publish_timeout"`
}

// Config holds the full configuration for the scheduler service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// CronParser accepts standard five-field expressions and descriptors such as @daily.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                   "scheduling-service",
		"logger.level":               "info",
		"logger.encoding":            "json",
		"api.port":                   8081,
		"redis.stream_max_len":       1000,
		"database.ssl_mode":          "disable",
		"database.max_idle_conns":    2,
		"database.max_open_conns":    5,
		"scheduler.polling_interval": "1m",
		"scheduler.cron_expression":  "0 22 * * 1-5",
		"scheduler.time_zone":        "UTC",
		"scheduler.publish_timeout":  "2m",
	}
}

// Validate rejects an unusable polling interval or cron expression.
func (c *Config) Validate() error {
	if c.Scheduler.PollingInterval <= 0 {
		return fmt.Errorf("scheduler.polling_interval must be positive")
	}
	if _, err := CronParser.Parse(c.Scheduler.CronExpression); err != nil {
		return fmt.Errorf("invalid scheduler.cron_expression %q: %w", c.Scheduler.CronExpression, err)
	}
	return nil
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
