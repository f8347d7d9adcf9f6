package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Assistant transports.
const (
	TransportSDK  = "sdk"
	TransportREST = "rest"
)

// Config holds the application's configuration.
type Config struct {
	Port               string          `yaml:"port"`
	ClassroomID        string          `yaml:"classroom_id"`
	TickInterval       time.Duration   `yaml:"tick_interval"`
	CORSAllowedOrigins []string        `yaml:"cors_allowed_origins"`
	Log                LogConfig       `yaml:"log"`
	Assistant          AssistantConfig `yaml:"assistant"`
	InfluxDB           InfluxDBConfig  `yaml:"influxdb"`
	MQTT               MQTTConfig      `yaml:"mqtt"`
	Telemetry          TelemetryConfig `yaml:"telemetry"`
	RateLimit          RateLimitConfig `yaml:"rate_limit"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// AssistantConfig configures the chat assistant's text-generation backend.
// An empty APIKey puts the assistant in degraded mode.
type AssistantConfig struct {
	APIKey    string        `yaml:"api_key"`
	Transport string        `yaml:"transport"` // sdk or rest
	BaseURL   string        `yaml:"base_url"`  // rest transport only
	Timeout   time.Duration `yaml:"timeout"`
}

// InfluxDBConfig configures the optional telemetry export to InfluxDB.
type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Enabled reports whether every connection setting is present.
func (c InfluxDBConfig) Enabled() bool {
	return c.URL != "" && c.Token != "" && c.Org != ""
}

// MQTTConfig configures the optional snapshot broadcast over MQTT.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"` // {classroom} is replaced by the classroom id
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// TelemetryConfig tunes how snapshots are exported.
type TelemetryConfig struct {
	ExportTimeout time.Duration `yaml:"export_timeout"`
	TripAfter     int           `yaml:"trip_after"` // consecutive failures; 0 never trips
	Cooldown      time.Duration `yaml:"cooldown"`
}

// RateLimitConfig throttles chat submissions per client.
type RateLimitConfig struct {
	ChatPerMinute int `yaml:"chat_per_minute"` // 0 disables throttling
	ChatBurst     int `yaml:"chat_burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:               "8000",
		ClassroomID:        "classroom-1",
		TickInterval:       3 * time.Second,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Assistant: AssistantConfig{
			Transport: TransportSDK,
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			Timeout:   30 * time.Second,
		},
		InfluxDB: InfluxDBConfig{
			Bucket: "smart_classroom",
		},
		MQTT: MQTTConfig{
			ClientID: "smart-classroom",
			Topic:    "classroom/{classroom}/snapshot",
		},
		Telemetry: TelemetryConfig{
			ExportTimeout: 5 * time.Second,
			TripAfter:     3,
			Cooldown:      30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			ChatPerMinute: 20,
			ChatBurst:     5,
		},
	}
}

// LoadConfig loads the configuration: built-in defaults, then the YAML file
// named by CLASSROOM_CONFIG (if any), then environment variables.
func LoadConfig() (Config, error) {
	// A missing .env file is fine; the process environment is used as is.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CLASSROOM_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.Port, "PORT")
	setString(&c.ClassroomID, "CLASSROOM_ID")
	errs = append(errs, setDuration(&c.TickInterval, "TICK_INTERVAL"))
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	// The dashboard used to be configured through Vite; accept its variable too.
	setString(&c.Assistant.APIKey, "VITE_GEMINI_API_KEY")
	setString(&c.Assistant.APIKey, "GEMINI_API_KEY")
	setString(&c.Assistant.Transport, "ASSISTANT_TRANSPORT")
	setString(&c.Assistant.BaseURL, "ASSISTANT_BASE_URL")
	errs = append(errs, setDuration(&c.Assistant.Timeout, "ASSISTANT_TIMEOUT"))

	setString(&c.InfluxDB.URL, "INFLUXDB_URL")
	setString(&c.InfluxDB.Token, "INFLUXDB_TOKEN")
	setString(&c.InfluxDB.Org, "INFLUXDB_ORG")
	setString(&c.InfluxDB.Bucket, "INFLUXDB_BUCKET")

	setString(&c.MQTT.Broker, "MQTT_BROKER")
	setString(&c.MQTT.ClientID, "MQTT_CLIENT_ID")
	setString(&c.MQTT.Username, "MQTT_USERNAME")
	setString(&c.MQTT.Password, "MQTT_PASSWORD")
	setString(&c.MQTT.Topic, "MQTT_TOPIC")

	errs = append(errs, setDuration(&c.Telemetry.ExportTimeout, "TELEMETRY_EXPORT_TIMEOUT"))
	errs = append(errs, setInt(&c.Telemetry.TripAfter, "TELEMETRY_TRIP_AFTER"))
	errs = append(errs, setDuration(&c.Telemetry.Cooldown, "TELEMETRY_COOLDOWN"))

	errs = append(errs, setInt(&c.RateLimit.ChatPerMinute, "CHAT_RATE_LIMIT"))
	errs = append(errs, setInt(&c.RateLimit.ChatBurst, "CHAT_RATE_BURST"))

	return errors.Join(errs...)
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.ClassroomID == "" {
		errs = append(errs, errors.New("classroom id must not be empty"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.Assistant.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("assistant timeout must be positive, got %s", c.Assistant.Timeout))
	}
	switch c.Assistant.Transport {
	case TransportSDK:
	case TransportREST:
		if c.Assistant.BaseURL == "" {
			errs = append(errs, errors.New("assistant base url is required for the rest transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown assistant transport %q", c.Assistant.Transport))
	}
	if (c.InfluxDB.URL != "" || c.InfluxDB.Token != "" || c.InfluxDB.Org != "") && !c.InfluxDB.Enabled() {
		errs = append(errs, errors.New("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, and INFLUXDB_ORG environment variables"))
	}
	if c.Telemetry.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("telemetry export timeout must be positive, got %s", c.Telemetry.ExportTimeout))
	}
	if c.Telemetry.TripAfter < 0 {
		errs = append(errs, fmt.Errorf("telemetry trip threshold must not be negative, got %d", c.Telemetry.TripAfter))
	}
	if c.RateLimit.ChatPerMinute < 0 || c.RateLimit.ChatBurst < 0 {
		errs = append(errs, errors.New("chat rate limit must not be negative"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
