// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Kafka        KafkaConfig        `koanf:"kafka"`
	Outbox       OutboxConfig       `koanf:"outbox"`
	Gamification GamificationConfig `koanf:"gamification"`
	Realtime     RealtimeConfig     `koanf:"realtime"`
	Storefront   StorefrontConfig   `koanf:"storefront"`
	Sessions     SessionsConfig     `koanf:"sessions"`
	Jobs         JobsConfig         `koanf:"jobs"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type KafkaConfig struct {
	Brokers         []string      `koanf:"brokers"`
	ConsumerGroup   string        `koanf:"consumer_group"`
	WorkoutTopic    string        `koanf:"workout_topic"`
	SessionTopic    string        `koanf:"session_topic"`
	OrderTopic      string        `koanf:"order_topic"`
	MinBytes        int           `koanf:"min_bytes"`
	MaxBytes        int           `koanf:"max_bytes"`
	CommitRetries   int           `koanf:"commit_retries"`
	HandlerAttempts int           `koanf:"handler_attempts"`
	HandlerBackoff  time.Duration `koanf:"handler_backoff"`
}

// Topics returns every topic the gamification consumer reads.
func (k KafkaConfig) Topics() []string {
	return []string{k.WorkoutTopic, k.SessionTopic, k.OrderTopic}
}

type OutboxConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
	BatchSize    int           `koanf:"batch_size"`
	MaxAttempts  int           `koanf:"max_attempts"`
}

type GamificationConfig struct {
	LeaderboardKey   string        `koanf:"leaderboard_key"`
	WeeklyTTL        time.Duration `koanf:"weekly_ttl"`
	LeaderboardLimit int           `koanf:"leaderboard_limit"`
	NotifyChannel    string        `koanf:"notify_channel"`
	SessionPoints    int           `koanf:"session_points"`
	PointsPerCredit  int           `koanf:"points_per_credit"`
	ConsumerEnabled  bool          `koanf:"consumer_enabled"`
}

type RealtimeConfig struct {
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	PongTimeout    time.Duration `koanf:"pong_timeout"`
	PingInterval   time.Duration `koanf:"ping_interval"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	SendBuffer     int           `koanf:"send_buffer"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

type StorefrontConfig struct {
	CartTTL       time.Duration `koanf:"cart_ttl"`
	MaxCartItems  int           `koanf:"max_cart_items"`
	Currency      string        `koanf:"currency"`
	MaxItemAmount int           `koanf:"max_item_quantity"`
}

type SessionsConfig struct {
	RefundWindow time.Duration `koanf:"refund_window"`
}

type JobsConfig struct {
	Enabled          bool   `koanf:"enabled"`
	ChallengeSweep   string `koanf:"challenge_sweep"`
	StreakReset      string `koanf:"streak_reset"`
	TokenPurge       string `koanf:"token_purge"`
	OutboxVacuum     string `koanf:"outbox_vacuum"`
	OutboxRetainDays int    `koanf:"outbox_retain_days"`
}

// Load layers defaults, an optional YAML file and environment variables,
// then validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Coach Platform",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.migrate_on_start":   false,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "coach-platform",
		"jwt.audience":             "coach-platform-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"Idempotency-Key",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "coach-api",

		"kafka.brokers":          []string{"localhost:9092"},
		"kafka.consumer_group":   "gamification",
		"kafka.workout_topic":    "coach.workout-logs",
		"kafka.session_topic":    "coach.sessions",
		"kafka.order_topic":      "coach.orders",
		"kafka.min_bytes":        1,
		"kafka.max_bytes":        10 << 20,
		"kafka.commit_retries":   3,
		"kafka.handler_attempts": 3,
		"kafka.handler_backoff":  "500ms",

		"outbox.enabled":       true,
		"outbox.poll_interval": "1s",
		"outbox.batch_size":    100,
		"outbox.max_attempts":  10,

		"gamification.leaderboard_key":   "leaderboard",
		"gamification.weekly_ttl":        "336h",
		"gamification.leaderboard_limit": 25,
		"gamification.notify_channel":    "gamification:notifications",
		"gamification.session_points":    25,
		"gamification.points_per_credit": 5,
		"gamification.consumer_enabled":  true,

		"realtime.write_timeout":    "10s",
		"realtime.pong_timeout":     "60s",
		"realtime.ping_interval":    "50s",
		"realtime.max_message_size": 4096,
		"realtime.send_buffer":      32,
		"realtime.allowed_origins":  []string{"http://localhost:3000"},

		"storefront.cart_ttl":          "72h",
		"storefront.max_cart_items":    20,
		"storefront.currency":          "usd",
		"storefront.max_item_quantity": 50,

		"sessions.refund_window": "24h",

		"jobs.enabled":            true,
		"jobs.challenge_sweep":    "@every 5m",
		"jobs.streak_reset":       "10 0 * * *",
		"jobs.token_purge":        "@hourly",
		"jobs.outbox_vacuum":      "30 3 * * *",
		"jobs.outbox_retain_days": 7,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_MIGRATE_ON_START":   "database.migrate_on_start",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"KAFKA_BROKERS":               "kafka.brokers",
	"KAFKA_CONSUMER_GROUP":        "kafka.consumer_group",
	"OUTBOX_ENABLED":              "outbox.enabled",
	"OUTBOX_POLL_INTERVAL":        "outbox.poll_interval",
	"GAMIFICATION_CONSUMER":       "gamification.consumer_enabled",
	"JOBS_ENABLED":                "jobs.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// splitList accepts both YAML lists and a single comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return errors.New("REDIS_URL is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return errors.New("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return errors.New(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return errors.New("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}

	if (c.Outbox.Enabled || c.Gamification.ConsumerEnabled) &&
		len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when events are enabled")
	}

	if c.Outbox.BatchSize <= 0 {
		return errors.New("outbox.batch_size must be positive")
	}

	if c.Realtime.PingInterval >= c.Realtime.PongTimeout {
		return errors.New("realtime.ping_interval must be shorter than pong_timeout")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
