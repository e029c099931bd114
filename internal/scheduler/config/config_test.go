package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Scheduler.PollingInterval)
	assert.Equal(t, "0 22 * * 1-5", cfg.Scheduler.CronExpression)
	assert.Equal(t, "UTC", cfg.Scheduler.TimeZone)
	assert.Equal(t, int64(1000), cfg.Redis.StreamMaxLen)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scheduler:\n  polling_interval: 30s\n  cron_expression: \"@daily\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.PollingInterval)
	assert.Equal(t, "@daily", cfg.Scheduler.CronExpression)
}

func TestValidate(t *testing.T) {
	cfg := Config{Scheduler: Scheduler{PollingInterval: time.Minute, CronExpression: "not a cron"}}
	assert.Error(t, cfg.Validate())

	cfg.Scheduler.CronExpression = "*/5 * * * *"
	assert.NoError(t, cfg.Validate())

	cfg.Scheduler.PollingInterval = 0
	assert.Error(t, cfg.Validate())
}
