package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	platformstrings "userflat/pkg/platform/strings"
)

// Sink names accepted in USERFLAT_SINKS.
const (
	SinkFile     = "file"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
	SinkKafka    = "kafka"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr         string        `env:"USERFLAT_ADDR"           envDefault:":8080"`
	LogLevel     string        `env:"USERFLAT_LOG_LEVEL"      envDefault:"info"`
	MaxBodyBytes int64         `env:"USERFLAT_MAX_BODY_BYTES" envDefault:"1048576"`
	ShutdownWait time.Duration `env:"USERFLAT_SHUTDOWN_WAIT"  envDefault:"10s"`
	ReadTimeout  time.Duration `env:"USERFLAT_READ_TIMEOUT"   envDefault:"15s"`
	WriteTimeout time.Duration `env:"USERFLAT_WRITE_TIMEOUT"  envDefault:"30s"`
}

// Flatten controls the pipeline's compatibility switches.
type Flatten struct {
	TitleCaseMode   string `env:"USERFLAT_TITLECASE_MODE"   envDefault:"legacy"`
	RequireUsername bool   `env:"USERFLAT_REQUIRE_USERNAME" envDefault:"false"`
}

// Auth enables bearer-token checks when SigningKey is set.
type Auth struct {
	SigningKey string `env:"USERFLAT_JWT_SIGNING_KEY"`
	Issuer     string `env:"USERFLAT_JWT_ISSUER"   envDefault:"userflat"`
	Audience   string `env:"USERFLAT_JWT_AUDIENCE" envDefault:"userflat"`
}

// Enabled reports whether requests must carry a bearer token.
func (a Auth) Enabled() bool {
	return a.SigningKey != ""
}

// RedisConfig configures the redis sink connection.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	TTL          time.Duration `env:"REDIS_TTL"            envDefault:"24h"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// DBConfig configures the postgres sink.
type DBConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"     envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"  envDefault:"5m"`
}

// KafkaConfig configures the kafka sink.
type KafkaConfig struct {
	Brokers  []string `env:"KAFKA_BROKERS"  envSeparator:","`
	Topic    string   `env:"KAFKA_TOPIC"    envDefault:"users.flattened"`
	ClientID string   `env:"KAFKA_CLIENT_ID" envDefault:"userflat"`
}

// Sinks lists where flattened records are published.
type Sinks struct {
	Enabled         []string      `env:"USERFLAT_SINKS"        envSeparator:","`
	Dir             string        `env:"USERFLAT_SINK_DIR"     envDefault:"./out"`
	BreakerFailures int           `env:"SINK_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"SINK_BREAKER_COOLDOWN" envDefault:"5s"`
}

// Has reports whether the named sink is enabled.
func (s Sinks) Has(name string) bool {
	for _, n := range s.Enabled {
		if n == name {
			return true
		}
	}
	return false
}

// Config is the full process configuration.
type Config struct {
	Server  Server
	Flatten Flatten
	Auth    Auth
	Redis   RedisConfig
	DB      DBConfig
	Kafka   KafkaConfig
	Sinks   Sinks
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromMap parses the same variables from a map instead of the process
// environment. Used by tests.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate normalizes the sink list in place and checks that every enabled
// sink has what it needs.
func (c *Config) validate() error {
	c.Sinks.Enabled = platformstrings.DedupeAndTrimLower(c.Sinks.Enabled)
	for _, name := range c.Sinks.Enabled {
		switch name {
		case SinkFile:
		case SinkRedis:
			if c.Redis.URL == "" {
				return fmt.Errorf("sink %q requires REDIS_URL", SinkRedis)
			}
		case SinkPostgres:
			if c.DB.URL == "" {
				return fmt.Errorf("sink %q requires DATABASE_URL", SinkPostgres)
			}
		case SinkKafka:
			if len(c.Kafka.Brokers) == 0 {
				return fmt.Errorf("sink %q requires KAFKA_BROKERS", SinkKafka)
			}
		default:
			return fmt.Errorf("unknown sink %q", name)
		}
	}
	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug/info/warn/error onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
