// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN holding session, credential, and audit records.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// EncryptionKey is the secret used to derive the symmetric key for stored credentials.
	// Required; startup fails without it.
	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"`
	// AuthJWTSecret is the HS256 secret shared with the identity provider for access-token validation.
	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
	// AuthRefreshURL is the identity provider's token refresh endpoint. Empty disables refresh.
	AuthRefreshURL string `mapstructure:"AUTH_REFRESH_URL"`
	// RuntimeRESTURL is the compute runtime's REST base URL. Default is a local dev address.
	RuntimeRESTURL string `mapstructure:"RUNTIME_REST_URL"`
	// RuntimeWSURL is the compute runtime's realtime base URL. Default is a local dev address.
	RuntimeWSURL string `mapstructure:"RUNTIME_WS_URL"`
	// TicketSecret signs connection tickets. When empty, a key is derived from EncryptionKey.
	TicketSecret string `mapstructure:"TICKET_SECRET"`
	// TicketTTL is the connection ticket lifetime (e.g. "5m").
	TicketTTL string `mapstructure:"TICKET_TTL"`
	// UpstreamTimeout bounds forwarded calls to the compute runtime (e.g. "10s").
	UpstreamTimeout string `mapstructure:"UPSTREAM_TIMEOUT"`
	// AuthTimeout bounds identity provider validate/refresh round trips (e.g. "5s").
	AuthTimeout string `mapstructure:"AUTH_TIMEOUT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint. Empty disables OTel export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, the gateway emits audit events to Kafka.
	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events (default gateway-audit).
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the audit worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
// A missing ENCRYPTION_KEY or AUTH_JWT_SECRET is a startup error, never a per-request fallback.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ENCRYPTION_KEY", "")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_REFRESH_URL", "")
	v.SetDefault("RUNTIME_REST_URL", "http://localhost:8000")
	v.SetDefault("RUNTIME_WS_URL", "ws://localhost:8000")
	v.SetDefault("TICKET_SECRET", "")
	v.SetDefault("TICKET_TTL", "5m")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("AUTH_TIMEOUT", "5s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "gateway-audit")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "gateway-audit-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("config: ENCRYPTION_KEY must be set")
	}
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("config: AUTH_JWT_SECRET must be set")
	}

	return &cfg, nil
}

// TicketLifetime parses TicketTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) TicketLifetime() time.Duration {
	d, err := time.ParseDuration(c.TicketTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// UpstreamCallTimeout parses UpstreamTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) UpstreamCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.UpstreamTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// AuthCallTimeout parses AuthTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) AuthCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.AuthTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if audit emission is enabled (non-empty list) and to create the producer.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil || c.AuditKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuditKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
