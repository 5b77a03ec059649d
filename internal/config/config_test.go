package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_NAME", "REDIS_ADDR", "MQTT_ENABLED", "HTTP_ADDR",
		"REPORT_ESTIMATED_SECONDS", "REPORT_REFRESH_CRON", "SOORI_BASE_URL", "POLL_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "soori", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "welfare:tasks", cfg.Report.TaskStream)
	assert.Equal(t, 10, cfg.Report.BatchSize)
	assert.Equal(t, 30, cfg.Report.EstimatedTime)
	assert.Equal(t, 24*time.Hour, cfg.Report.TaskTTL)
	assert.Equal(t, 10*time.Minute, cfg.Report.InFlightTTL)
	assert.Equal(t, "0 0 9 * * MON", cfg.Report.RefreshCron)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.API.PollInterval)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("REDIS_READ_TIMEOUT", "4s")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("REPORT_ESTIMATED_SECONDS", "45")
	t.Setenv("REPORT_REFRESH_CRON", "off")
	t.Setenv("SOORI_BASE_URL", "http://localhost:8080/")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.Equal(t, 4*time.Second, cfg.Redis.ReadTimeout)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, 45, cfg.Report.EstimatedTime)
	assert.Empty(t, cfg.Report.RefreshCron)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.API.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL(""))
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL("https://example.com/api"))
	assert.Equal(t, "https://asia-northeast3-x.cloudfunctions.net/api",
		ResolveBaseURL("https://asia-northeast3-x.cloudfunctions.net/api"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")
	assert.Equal(t, "test-value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default-value", getEnv("NON_EXISTENT_VAR", "default-value"))
}
