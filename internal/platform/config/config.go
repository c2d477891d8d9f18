// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Publisher modes select the EventPublisher adapter.
const (
	PublisherNoop   = "noop"
	PublisherKafka  = "kafka"
	PublisherRedis  = "redis"
	PublisherOutbox = "outbox"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TENANCY_ADDR" envDefault:":8080"`
	Environment     string        `env:"TENANCY_ENV" envDefault:"development"`
	LogLevel        string        `env:"TENANCY_LOG_LEVEL" envDefault:"info"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	ShutdownTimeout time.Duration `env:"TENANCY_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	// DemoSeed creates the "acme" tenant with an owner in the in-memory store.
	DemoSeed bool `env:"TENANCY_DEMO_SEED" envDefault:"false"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Publisher PublisherConfig
	Outbox    OutboxConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory tenant store.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type KafkaConfig struct {
	Brokers         string        `env:"KAFKA_BROKERS"`
	ClientID        string        `env:"KAFKA_CLIENT_ID" envDefault:"tenancy"`
	Acks            string        `env:"KAFKA_ACKS" envDefault:"all"`
	Retries         int           `env:"KAFKA_RETRIES" envDefault:"3"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT" envDefault:"30s"`
	Topic           string        `env:"KAFKA_TENANT_TOPIC" envDefault:"tenancy.tenant.events"`
}

type PublisherConfig struct {
	Mode           string `env:"EVENT_PUBLISHER" envDefault:"noop"`
	RedisStream    string `env:"REDIS_TENANT_STREAM" envDefault:"tenancy:tenant:events"`
	RedisStreamMax int64  `env:"REDIS_TENANT_STREAM_MAXLEN" envDefault:"100000"`
}

type OutboxConfig struct {
	PollInterval    time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"100ms"`
	BatchSize       int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	CleanupInterval time.Duration `env:"OUTBOX_CLEANUP_INTERVAL" envDefault:"1h"`
	Retention       time.Duration `env:"OUTBOX_RETENTION" envDefault:"168h"`
	DepthInterval   time.Duration `env:"OUTBOX_DEPTH_INTERVAL" envDefault:"15s"`
}

// FromEnv parses and validates the Server configuration.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Publisher.Mode = strings.ToLower(strings.TrimSpace(cfg.Publisher.Mode))
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags cannot express.
func (s Server) Validate() error {
	switch s.Publisher.Mode {
	case PublisherNoop:
	case PublisherKafka:
		if s.Kafka.Brokers == "" {
			return fmt.Errorf("EVENT_PUBLISHER=kafka requires KAFKA_BROKERS")
		}
	case PublisherRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("EVENT_PUBLISHER=redis requires REDIS_URL")
		}
	case PublisherOutbox:
		if s.Database.URL == "" || s.Kafka.Brokers == "" {
			return fmt.Errorf("EVENT_PUBLISHER=outbox requires DATABASE_URL and KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown EVENT_PUBLISHER %q", s.Publisher.Mode)
	}
	if len(s.JWTSigningKey) < 16 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 16 bytes")
	}
	return nil
}
