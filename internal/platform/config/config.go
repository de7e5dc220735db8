package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAddr                = ":8080"
	DefaultCalendarificBaseURL = "https://calendarific.com/api/v2"
	DefaultHolidayCountry      = "ZA"
	DefaultHolidayFetchTimeout = 10 * time.Second
	DefaultStoreTimeout        = 5 * time.Second
	DefaultIdentityCacheTTL    = 10 * time.Minute
	DefaultAuditTopic          = "identity.audit"
	DefaultBreakerFailures     = 5
	DefaultBreakerCooldown     = 30 * time.Second
)

// Config is the process configuration shared by the server and the CLI.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Holidays HolidaysConfig
	Identity IdentityConfig
	Kafka    KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	LogLevel slog.Level
}

// DatabaseConfig holds Postgres settings. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds projection cache settings. An empty URL disables the cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// HolidaysConfig configures the Calendarific adapter. A missing API key is
// not an error: fetches degrade to an empty result.
type HolidaysConfig struct {
	APIKey       string
	BaseURL      string
	Country      string
	FetchTimeout time.Duration
	// BreakerFailures consecutive retryable failures open the provider circuit.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// IdentityConfig configures the resolution flow.
type IdentityConfig struct {
	StoreTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the audit stream. No brokers selects the in-memory sink.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Enabled reports whether brokers are configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Holidays,
		validation.Field(&c.Holidays.BaseURL, validation.Required),
		validation.Field(&c.Holidays.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&c.Holidays.FetchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Holidays.BreakerFailures, validation.Required, validation.Min(1)),
		validation.Field(&c.Holidays.BreakerCooldown, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("holidays: %w", err)
	}
	if err := validation.ValidateStruct(&c.Identity,
		validation.Field(&c.Identity.StoreTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Identity.CacheTTL, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if c.Kafka.Enabled() {
		if err := validation.ValidateStruct(&c.Kafka,
			validation.Field(&c.Kafka.AuditTopic, validation.Required),
		); err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables so main stays lean.
// Callers load .env files before calling (godotenv/autoload in cmd).
func FromEnv() (Config, error) {
	logLevel, err := parseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	fetchTimeout, err := durationEnv("HOLIDAY_FETCH_TIMEOUT", DefaultHolidayFetchTimeout)
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := durationEnv("STORE_TIMEOUT", DefaultStoreTimeout)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationEnv("IDENTITY_CACHE_TTL", DefaultIdentityCacheTTL)
	if err != nil {
		return Config{}, err
	}
	breakerCooldown, err := durationEnv("HOLIDAY_BREAKER_COOLDOWN", DefaultBreakerCooldown)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:     getenv("IDLOOKUP_ADDR", DefaultAddr),
			LogLevel: logLevel,
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Holidays: HolidaysConfig{
			APIKey:          os.Getenv("CALENDARIFIC_API_KEY"),
			BaseURL:         getenv("CALENDARIFIC_BASE_URL", DefaultCalendarificBaseURL),
			Country:         strings.ToUpper(getenv("HOLIDAY_COUNTRY", DefaultHolidayCountry)),
			FetchTimeout:    fetchTimeout,
			BreakerFailures: DefaultBreakerFailures,
			BreakerCooldown: breakerCooldown,
		},
		Identity: IdentityConfig{
			StoreTimeout: storeTimeout,
			CacheTTL:     cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getenv("AUDIT_TOPIC", DefaultAuditTopic),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
