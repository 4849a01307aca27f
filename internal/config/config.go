// Package config loads the orchestrator configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/kafka"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/tracing"
)

// ServiceName identifies the orchestrator in logs, metrics and traces
const ServiceName = "fulfillment-orchestrator"

// Config holds application configuration
type Config struct {
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8010"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Browser origins allowed to call the admin API. Empty disables CORS.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Mongo     MongoConfig
	Kafka     KafkaConfig
	Tracing   TracingConfig
	Inventory InventoryConfig
	Wes       WesConfig
	Scheduler SchedulerConfig

	DefaultWarehouseID string        `env:"DEFAULT_WAREHOUSE_ID" envDefault:"WH001"`
	DefaultLeadTime    time.Duration `env:"DEFAULT_FULFILLMENT_LEAD_TIME" envDefault:"2h"`
}

// MongoConfig configures the aggregate store, outbox and lock collections
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"fulfillment_orchestrator"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize    uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize    uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"10"`
	LockLease      time.Duration `env:"LOCK_LEASE" envDefault:"30s"`
}

// KafkaConfig configures the outbox producer and the putaway consumer
type KafkaConfig struct {
	Enabled       bool          `env:"KAFKA_ENABLED" envDefault:"true"`
	Brokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerGroup string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"fulfillment-orchestrator"`
	OutboxPoll    time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxBatch   int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"true"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// InventoryConfig points at the external inventory system
type InventoryConfig struct {
	BaseURL string        `env:"INVENTORY_SYSTEM_URL" envDefault:"http://localhost:8008"`
	Timeout time.Duration `env:"INVENTORY_SYSTEM_TIMEOUT" envDefault:"10s"`
}

// WesConfig points at the warehouse execution system
type WesConfig struct {
	BaseURL   string        `env:"WES_URL" envDefault:"http://localhost:8016"`
	Timeout   time.Duration `env:"WES_TIMEOUT" envDefault:"10s"`
	AuthToken string        `env:"WES_AUTH_TOKEN"`
}

// SchedulerConfig holds the periodic job intervals. Zero disables a job.
type SchedulerConfig struct {
	FulfillmentInterval       time.Duration `env:"FULFILLMENT_SCHEDULER_INTERVAL" envDefault:"1m"`
	InventoryObserverInterval time.Duration `env:"INVENTORY_OBSERVER_INTERVAL" envDefault:"10s"`
	OrderObserverInterval     time.Duration `env:"ORDER_OBSERVER_INTERVAL" envDefault:"10s"`
	WesObserverInterval       time.Duration `env:"WES_OBSERVER_INTERVAL" envDefault:"10s"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.Brokers) == 0 && c.Kafka.Enabled {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	if c.DefaultLeadTime < 0 {
		return fmt.Errorf("DEFAULT_FULFILLMENT_LEAD_TIME must not be negative")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}

// Logging returns the logger configuration
func (c *Config) Logging() *logging.Config {
	lc := logging.DefaultConfig(ServiceName)
	lc.Level = logging.ParseLevel(c.LogLevel)
	lc.Environment = c.Environment
	return lc
}

// MongoDB returns the Mongo client configuration
func (c *Config) MongoDB() *mongodb.Config {
	return &mongodb.Config{
		URI:            c.Mongo.URI,
		Database:       c.Mongo.Database,
		AppName:        ServiceName,
		ConnectTimeout: c.Mongo.ConnectTimeout,
		MaxPoolSize:    c.Mongo.MaxPoolSize,
		MinPoolSize:    c.Mongo.MinPoolSize,
	}
}

// KafkaClient returns the Kafka producer/consumer configuration
func (c *Config) KafkaClient() *kafka.Config {
	kc := kafka.DefaultConfig()
	kc.Brokers = c.Kafka.Brokers
	kc.ConsumerGroup = c.Kafka.ConsumerGroup
	kc.ClientID = ServiceName
	return kc
}

// Tracer returns the tracing configuration
func (c *Config) Tracer() *tracing.Config {
	return &tracing.Config{
		ServiceName:  ServiceName,
		Environment:  c.Environment,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		SampleRate:   c.Tracing.SampleRate,
		Enabled:      c.Tracing.Enabled,
	}
}
