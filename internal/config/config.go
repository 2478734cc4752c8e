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
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "authcore").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "authcore-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token and session lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// ResetTokenTTL is the password reset token lifetime (e.g. "1h").
	ResetTokenTTL string `mapstructure:"RESET_TOKEN_TTL"`
	// VerificationTokenTTL is the email verification token lifetime (e.g. "72h").
	VerificationTokenTTL string `mapstructure:"VERIFICATION_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PageSizeMax caps requested page sizes on listing operations.
	PageSizeMax int `mapstructure:"PAGE_SIZE_MAX"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Audit (optional). When Kafka brokers are set, audit events go to Kafka;
	// otherwise they go to the process log.
	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	AuditKafkaBrokers string `mapstructure:"AUDIT_KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events (default authcore-audit).
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// OTelEndpoint is the OTLP gRPC endpoint for traces and metrics; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure disables TLS on the OTLP exporter connection.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Sweeper-only: how often the retention sweep runs and how long retired
	// rows are kept past expiry.
	SweepInterval  string `mapstructure:"SWEEP_INTERVAL"`
	SweepRetention string `mapstructure:"SWEEP_RETENTION"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "authcore")
	v.SetDefault("JWT_AUDIENCE", "authcore-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("RESET_TOKEN_TTL", "1h")
	v.SetDefault("VERIFICATION_TOKEN_TTL", "72h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PAGE_SIZE_MAX", 100)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("AUDIT_KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "authcore-audit")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_RETENTION", "720h") // 30d

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.PageSizeMax < 1 {
		return nil, errors.New("config: PAGE_SIZE_MAX must be at least 1")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return durationOr(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return durationOr(c.JWTRefreshTTL, 168*time.Hour)
}

// ResetTTL parses ResetTokenTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) ResetTTL() time.Duration {
	return durationOr(c.ResetTokenTTL, time.Hour)
}

// VerificationTTL parses VerificationTokenTTL as a time.Duration. Returns 72h if unset or invalid.
func (c *Config) VerificationTTL() time.Duration {
	return durationOr(c.VerificationTokenTTL, 72*time.Hour)
}

// SweepIntervalDuration parses SweepInterval. Returns 1h if unset or invalid.
func (c *Config) SweepIntervalDuration() time.Duration {
	return durationOr(c.SweepInterval, time.Hour)
}

// SweepRetentionDuration parses SweepRetention. Returns 720h if unset or invalid.
func (c *Config) SweepRetentionDuration() time.Duration {
	return durationOr(c.SweepRetention, 720*time.Hour)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka audit sink is enabled (non-empty list) and to create the recorder.
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
