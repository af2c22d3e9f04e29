package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// devSigningKey is only used when ENV=development and AUTH_SIGNING_KEY is unset.
const devSigningKey = "clinic-development-signing-key-do-not-use"

// MinSigningKeyLength is the minimum HMAC key size accepted outside development.
const MinSigningKeyLength = 32

type Config struct {
	Port                     string        `mapstructure:"PORT"`
	Env                      string        `mapstructure:"ENV"`
	DatabaseURL              string        `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema                 string        `mapstructure:"DB_SCHEMA"`
	MigrationsDir            string        `mapstructure:"MIGRATIONS_DIR"`
	AuthSigningKey           string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer               string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL             time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	RedisURL                 string        `mapstructure:"REDIS_URL"`
	KafkaBrokers             []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopicPrefix         string        `mapstructure:"KAFKA_TOPIC_PREFIX"`
	OTelEnabled              bool          `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint             string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplingRatio        float64       `mapstructure:"OTEL_SAMPLING_RATIO"`
	CORSOrigins              []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS             float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst           int           `mapstructure:"RATE_LIMIT_BURST"`
	AppointmentStatuses      []string      `mapstructure:"APPOINTMENT_STATUSES"`
	DefaultAppointmentStatus string        `mapstructure:"DEFAULT_APPOINTMENT_STATUS"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"MIGRATIONS_DIR", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
	"REDIS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "OTEL_ENABLED",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "APPOINTMENT_STATUSES",
	"DEFAULT_APPOINTMENT_STATUS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("AUTH_ISSUER", "clinic-server")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "clinic")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("APPOINTMENT_STATUSES", "PENDING,CONFIRMED,SCHEDULED,COMPLETED,CANCELLED")
	v.SetDefault("DEFAULT_APPOINTMENT_STATUS", "PENDING")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers, v.GetString("KAFKA_BROKERS"))
	cfg.AppointmentStatuses = splitList(cfg.AppointmentStatuses, v.GetString("APPOINTMENT_STATUSES"))
	for i, s := range cfg.AppointmentStatuses {
		cfg.AppointmentStatuses[i] = strings.ToUpper(s)
	}
	cfg.DefaultAppointmentStatus = strings.ToUpper(strings.TrimSpace(cfg.DefaultAppointmentStatus))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		log.Warn().Msg("AUTH_SIGNING_KEY is not set; using the built-in development key. Do NOT use this configuration in production.")
		cfg.AuthSigningKey = devSigningKey
	}

	return cfg, nil
}

// splitList normalizes a comma separated setting. Viper may hand back either a
// decoded slice or a single unsplit element depending on the source.
func splitList(decoded []string, raw string) []string {
	if len(decoded) == 0 && raw != "" {
		decoded = []string{raw}
	}
	var out []string
	for _, item := range decoded {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// KafkaEnabled reports whether domain events should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if !c.IsDev() && len(c.AuthSigningKey) < MinSigningKeyLength {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least %d bytes, got %d", MinSigningKeyLength, len(c.AuthSigningKey))
	}
	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.AuthTokenTTL)
	}
	if c.DBMinConns < 0 || c.DBMaxConns <= 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) are inconsistent", c.DBMinConns, c.DBMaxConns)
	}
	if c.OTelSamplingRatio < 0 || c.OTelSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1, got %v", c.OTelSamplingRatio)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if len(c.AppointmentStatuses) == 0 {
		return fmt.Errorf("APPOINTMENT_STATUSES must list at least one status")
	}
	found := false
	for _, s := range c.AppointmentStatuses {
		if s == c.DefaultAppointmentStatus {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("DEFAULT_APPOINTMENT_STATUS %q is not one of APPOINTMENT_STATUSES %v",
			c.DefaultAppointmentStatus, c.AppointmentStatuses)
	}
	return nil
}
