package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLASSROOM_CONFIG", "PORT", "CLASSROOM_ID", "TICK_INTERVAL", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "GEMINI_API_KEY", "VITE_GEMINI_API_KEY",
		"ASSISTANT_TRANSPORT", "ASSISTANT_BASE_URL", "ASSISTANT_TIMEOUT",
		"INFLUXDB_URL", "INFLUXDB_TOKEN", "INFLUXDB_ORG", "INFLUXDB_BUCKET",
		"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_TOPIC",
		"TELEMETRY_EXPORT_TIMEOUT", "TELEMETRY_TRIP_AFTER", "TELEMETRY_COOLDOWN",
		"CHAT_RATE_LIMIT", "CHAT_RATE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.TickInterval)
	assert.Equal(t, TransportSDK, cfg.Assistant.Transport)
	assert.Empty(t, cfg.Assistant.APIKey)
	assert.False(t, cfg.InfluxDB.Enabled())
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, TelemetryConfig{ExportTimeout: 5 * time.Second, TripAfter: 3, Cooldown: 30 * time.Second}, cfg.Telemetry)
	assert.Equal(t, RateLimitConfig{ChatPerMinute: 20, ChatBurst: 5}, cfg.RateLimit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY wins over the legacy variable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITE_GEMINI_API_KEY", "legacy")
		t.Setenv("GEMINI_API_KEY", "current")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "current", cfg.Assistant.APIKey)
	})

	t.Run("legacy variable alone is accepted", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITE_GEMINI_API_KEY", "legacy")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "legacy", cfg.Assistant.APIKey)
	})

	t.Run("durations and lists", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TICK_INTERVAL", "500ms")
		t.Setenv("ASSISTANT_TIMEOUT", "5s")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
		assert.Equal(t, 5*time.Second, cfg.Assistant.Timeout)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	})

	t.Run("invalid duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TICK_INTERVAL", "soon")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "TICK_INTERVAL")
	})

	t.Run("partial InfluxDB settings are rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INFLUXDB_URL", "http://localhost:8086")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "InfluxDB configuration is incomplete")
	})

	t.Run("throttling and telemetry", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHAT_RATE_LIMIT", "0")
		t.Setenv("TELEMETRY_TRIP_AFTER", "10")
		t.Setenv("TELEMETRY_COOLDOWN", "1m")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Zero(t, cfg.RateLimit.ChatPerMinute)
		assert.Equal(t, 10, cfg.Telemetry.TripAfter)
		assert.Equal(t, time.Minute, cfg.Telemetry.Cooldown)
	})

	t.Run("invalid integer", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHAT_RATE_LIMIT", "lots")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "CHAT_RATE_LIMIT")
	})

	t.Run("negative rate limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHAT_RATE_BURST", "-1")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "must not be negative")
	})

	t.Run("unknown transport", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ASSISTANT_TRANSPORT", "carrier-pigeon")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "unknown assistant transport")
	})
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "classroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
classroom_id: room-204
tick_interval: 1s
assistant:
  transport: rest
  timeout: 10s
mqtt:
  broker: tcp://broker:1883
`), 0o600))
	t.Setenv("CLASSROOM_CONFIG", path)
	t.Setenv("PORT", "9191")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port, "environment overrides the file")
	assert.Equal(t, "room-204", cfg.ClassroomID)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, TransportREST, cfg.Assistant.Transport)
	assert.Equal(t, 10*time.Second, cfg.Assistant.Timeout)
	assert.NotEmpty(t, cfg.Assistant.BaseURL, "defaults survive a partial file")
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "classroom/{classroom}/snapshot", cfg.MQTT.Topic)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLASSROOM_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "failed to read config file")
}
