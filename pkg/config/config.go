package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "AETHER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"

	EventSinkNone   = "none"
	EventSinkPubSub = "pubsub"
	EventSinkKafka  = "kafka"
)

const (
	EnvAppEnv         = "AETHER_APP_ENV"
	EnvPort           = "AETHER_APP_PORT"
	EnvStorageDriver  = "AETHER_STORAGE_DRIVER"
	EnvDBDSN          = "AETHER_DB_DSN"
	EnvRedisURL       = "AETHER_REDIS_URL"
	EnvRedisAddr      = "AETHER_REDIS_ADDR"
	EnvCatalogFeedURL = "AETHER_CATALOG_FEED_URL"
	EnvEventSink      = "AETHER_EVENTS_SINK"
	EnvGCPProjectID   = "AETHER_GCP_PROJECT_ID"
	EnvPubSubTopic    = "AETHER_PUBSUB_TOPIC"
	EnvKafkaBrokers   = "AETHER_KAFKA_BROKERS"
	EnvKafkaTopic     = "AETHER_KAFKA_TOPIC"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Events  EventsConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Kafka   KafkaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AETHER_APP_ENV" required:"true"`
	Port         string `envconfig:"AETHER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AETHER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"AETHER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"AETHER_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"AETHER_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"AETHER_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the persistence adapter backing profile state.
type StorageConfig struct {
	Driver string `envconfig:"AETHER_STORAGE_DRIVER" default:"memory"`
}

type DBConfig struct {
	DSN         string `envconfig:"AETHER_DB_DSN"`
	AutoMigrate bool   `envconfig:"AETHER_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"AETHER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AETHER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AETHER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AETHER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AETHER_REDIS_URL"`
	Address      string        `envconfig:"AETHER_REDIS_ADDR"`
	Password     string        `envconfig:"AETHER_REDIS_PASSWORD"`
	DB           int           `envconfig:"AETHER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AETHER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AETHER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AETHER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AETHER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AETHER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CatalogConfig controls where and how often the product feed is pulled.
type CatalogConfig struct {
	FeedURL      string        `envconfig:"AETHER_CATALOG_FEED_URL" required:"true"`
	SyncInterval time.Duration `envconfig:"AETHER_CATALOG_SYNC_INTERVAL" default:"5m"`
	FetchTimeout time.Duration `envconfig:"AETHER_CATALOG_FETCH_TIMEOUT" default:"10s"`
	FetchRetries uint64        `envconfig:"AETHER_CATALOG_FETCH_RETRIES" default:"3"`
	SyncOnBoot   bool          `envconfig:"AETHER_CATALOG_SYNC_ON_BOOT" default:"true"`
}

type EventsConfig struct {
	Sink           string        `envconfig:"AETHER_EVENTS_SINK" default:"none"`
	PublishTimeout time.Duration `envconfig:"AETHER_EVENTS_PUBLISH_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"AETHER_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	Topic string `envconfig:"AETHER_PUBSUB_TOPIC" default:"aether-storefront-events"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"AETHER_KAFKA_BROKERS"`
	Topic   string   `envconfig:"AETHER_KAFKA_TOPIC" default:"aether.storefront.events"`
}

func (c *Config) validate() error {
	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch driver {
	case StorageDriverMemory:
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverSQLite, StorageDriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the %s storage driver", EnvDBDSN, driver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}
	c.Storage.Driver = driver

	if _, err := url.ParseRequestURI(c.Catalog.FeedURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCatalogFeedURL, err)
	}

	sink := strings.ToLower(strings.TrimSpace(c.Events.Sink))
	switch sink {
	case EventSinkNone:
	case EventSinkPubSub:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for the pubsub event sink", EnvGCPProjectID)
		}
	case EventSinkKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("%s is required for the kafka event sink", EnvKafkaBrokers)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvEventSink, c.Events.Sink)
	}
	c.Events.Sink = sink
	return nil
}
