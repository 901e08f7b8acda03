package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// GRPC holds gRPC server configuration.
type GRPC struct {
	Enabled bool
	Host    string
	Port    int
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used for order change events.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Database holds the connection settings of the single order store.
type Database struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	AutoMigrate     bool
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var env envReader
	cfg := Config{
		HTTP: HTTP{
			Host: env.String("HTTP_HOST", "127.0.0.1"),
			Port: env.Int("HTTP_PORT", 8080),
		},
		GRPC: GRPC{
			Enabled: env.Bool("GRPC_ENABLED", false),
			Host:    env.String("GRPC_HOST", "127.0.0.1"),
			Port:    env.Int("GRPC_PORT", 9090),
		},
		Cache: Cache{
			Enabled:    env.Bool("CACHE_ENABLED", false),
			Driver:     env.String("CACHE_DRIVER", "redis"),
			DefaultTTL: env.Duration("CACHE_DEFAULT_TTL", time.Minute*5),
			Redis: Redis{
				Addr:     env.String("REDIS_ADDR", "127.0.0.1:6379"),
				Password: env.String("REDIS_PASSWORD", ""),
				DB:       env.Int("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  env.String("MESSAGING_DRIVER", "kafka"),
			Enabled: env.Bool("MESSAGING_ENABLED", false),
			Kafka: Kafka{
				Brokers:        env.Strings("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       env.String("KAFKA_CLIENT_ID", "autoservice"),
				Topic:          env.String("KAFKA_TOPIC", "orders.events"),
				CommitInterval: env.Duration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       env.Int("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       env.Int("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: env.Duration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: env.String("KAFKA_CONSUMER_GROUP", "autoservice-worker"),
			Workers: Worker{
				Enabled:      env.Bool("WORKER_ENABLED", true),
				PollInterval: env.Duration("WORKER_POLL_INTERVAL", time.Second),
				Concurrency:  env.Int("WORKER_CONCURRENCY", 1),
			},
		},
		Database: Database{
			Driver:          env.String("DB_DRIVER", "sqlite"),
			DSN:             env.String("DB_DSN", "file:service.db?_fk=1&_busy_timeout=5000"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 1),
			MaxConnLifetime: env.Duration("DB_MAX_CONN_LIFETIME", 0),
			AutoMigrate:     env.Bool("DB_AUTO_MIGRATE", true),
		},
		Observability: Observability{
			ServiceName:     env.String("OBS_SERVICE_NAME", "autoservice"),
			Environment:     env.String("OBS_ENVIRONMENT", "local"),
			LogLevel:        env.String("OBS_LOG_LEVEL", "info"),
			LogEncoding:     env.String("OBS_LOG_ENCODING", "json"),
			EnableTracing:   env.Bool("OBS_ENABLE_TRACING", false),
			TraceExporter:   env.String("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   env.String("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   env.Bool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   env.Bool("OBS_ENABLE_METRICS", true),
			MetricsExporter: env.String("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  env.String("OBS_PROMETHEUS_PATH", "/metrics"),
		},
	}

	if err := env.Err(); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize applies defaults and validates cross-field constraints.
func (cfg *Config) normalize() error {
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	if cfg.GRPC.Enabled && cfg.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", cfg.GRPC.Port)
	}

	if !cfg.Cache.Enabled {
		cfg.Cache.Driver = "noop"
	}

	switch cfg.Cache.Driver {
	case "redis", "noop":
		// supported
	default:
		return fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return fmt.Errorf("missing REDIS_ADDR for redis cache")
	}

	if cfg.Cache.DefaultTTL < 0 {
		cfg.Cache.DefaultTTL = time.Minute * 5
	}

	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	cfg.Observability.LogEncoding = strings.ToLower(strings.TrimSpace(cfg.Observability.LogEncoding))
	if cfg.Observability.LogEncoding == "" {
		cfg.Observability.LogEncoding = "json"
	}
	cfg.Observability.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter))
	if cfg.Observability.TraceExporter == "" {
		cfg.Observability.TraceExporter = "stdout"
	}
	cfg.Observability.MetricsExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.MetricsExporter))
	if cfg.Observability.MetricsExporter == "" {
		cfg.Observability.MetricsExporter = "prometheus"
	}

	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(cfg.Observability.PrometheusPath, "/") {
		cfg.Observability.PrometheusPath = "/" + cfg.Observability.PrometheusPath
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}
	if cfg.Messaging.Workers.PollInterval <= 0 {
		cfg.Messaging.Workers.PollInterval = time.Second
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "sqlite3":
		cfg.Database.Driver = "sqlite"
	case "pg", "postgresql":
		cfg.Database.Driver = "postgres"
	case "sqlite", "postgres", "mysql":
		// supported
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("missing DB_DSN")
	}

	return nil
}
