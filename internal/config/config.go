// Package config resolves the broker configuration from layered sources
// (built-in defaults, config/ yaml files, BROKER__* environment variables)
// into a single validated Config that is shared read-only for the process
// lifetime.
package config

import (
	"time"
)

// Environment names accepted for the environment field. Production additionally
// requires TLS material for both the NATS transport and the API surface.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the complete broker configuration. It is constructed once by Load
// and never mutated afterwards; every component receives it by reference.
type Config struct {
	// BrokerID uniquely identifies this broker instance. When no source
	// supplies it, an id of the form host-pid-unixtime is generated.
	BrokerID string `koanf:"broker_id" yaml:"broker_id"`

	// Environment selects the configuration tier (development, staging,
	// production). Defaults to the ENVIRONMENT process variable.
	Environment string `koanf:"environment" yaml:"environment"`

	Nats    NatsConfig    `koanf:"nats" yaml:"nats"`
	API     APIConfig     `koanf:"api" yaml:"api"`
	Routing RoutingConfig `koanf:"routing" yaml:"routing"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
	Limits  RateLimits    `koanf:"limits" yaml:"limits"`
}

// NatsConfig holds transport settings consumed by the NATS layer.
type NatsConfig struct {
	Servers  []string `koanf:"servers" yaml:"servers"`
	Username string   `koanf:"username" yaml:"username,omitempty"`
	Password string   `koanf:"password" yaml:"password,omitempty"`
	Token    string   `koanf:"token" yaml:"token,omitempty"`
	TLSCert  string   `koanf:"tls_cert" yaml:"tls_cert,omitempty"`
	TLSKey   string   `koanf:"tls_key" yaml:"tls_key,omitempty"`
	TLSCA    string   `koanf:"tls_ca" yaml:"tls_ca,omitempty"`

	// Topics for gateway communication.
	IngressTopic      string `koanf:"ingress_topic" yaml:"ingress_topic"`
	EgressUserPrefix  string `koanf:"egress_user_prefix" yaml:"egress_user_prefix"`
	EgressGroupPrefix string `koanf:"egress_group_prefix" yaml:"egress_group_prefix"`
	ControlTopic      string `koanf:"control_topic" yaml:"control_topic"`

	// JetStream persistence coordinates.
	StreamName   string `koanf:"stream_name" yaml:"stream_name"`
	ConsumerName string `koanf:"consumer_name" yaml:"consumer_name"`

	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay" yaml:"reconnect_delay"`
	// MaxReconnects caps reconnect attempts; 0 means reconnect forever.
	MaxReconnects int `koanf:"max_reconnects" yaml:"max_reconnects"`
}

// APIConfig holds bind addresses and limits for the gRPC and REST surfaces.
type APIConfig struct {
	GRPCAddr    string `koanf:"grpc_addr" yaml:"grpc_addr"`
	RESTAddr    string `koanf:"rest_addr" yaml:"rest_addr"`
	GRPCTLSCert string `koanf:"grpc_tls_cert" yaml:"grpc_tls_cert,omitempty"`
	GRPCTLSKey  string `koanf:"grpc_tls_key" yaml:"grpc_tls_key,omitempty"`

	MaxConcurrentStreams int `koanf:"max_concurrent_streams" yaml:"max_concurrent_streams"`
	MaxFrameSize         int `koanf:"max_frame_size" yaml:"max_frame_size"`
}

// RoutingConfig holds tunables for the routing and fanout engines.
type RoutingConfig struct {
	ShardCount        int `koanf:"shard_count" yaml:"shard_count"`
	FanoutBatchSize   int `koanf:"fanout_batch_size" yaml:"fanout_batch_size"`
	FanoutParallelism int `koanf:"fanout_parallelism" yaml:"fanout_parallelism"`

	PresenceTTL time.Duration `koanf:"presence_ttl" yaml:"presence_ttl"`
	TypingTTL   time.Duration `koanf:"typing_ttl" yaml:"typing_ttl"`

	CacheSize       int `koanf:"cache_size" yaml:"cache_size"`
	BloomFilterSize int `koanf:"bloom_filter_size" yaml:"bloom_filter_size"`
}

// MetricsConfig holds the observability settings.
type MetricsConfig struct {
	PrometheusAddr string `koanf:"prometheus_addr" yaml:"prometheus_addr"`
	LogLevel       string `koanf:"log_level" yaml:"log_level"`
	EnableTracing  bool   `koanf:"enable_tracing" yaml:"enable_tracing"`
	OtelEndpoint   string `koanf:"otel_endpoint" yaml:"otel_endpoint,omitempty"`
}

// RateLimits holds throughput and size ceilings enforced by the broker engine.
type RateLimits struct {
	MessagesPerSecond       int `koanf:"messages_per_second" yaml:"messages_per_second"`
	BurstSize               int `koanf:"burst_size" yaml:"burst_size"`
	MaxMessageSize          int `koanf:"max_message_size" yaml:"max_message_size"`
	MaxRecipientsPerMessage int `koanf:"max_recipients_per_message" yaml:"max_recipients_per_message"`
	MaxGroupSize            int `koanf:"max_group_size" yaml:"max_group_size"`

	UserMessageLimit       int           `koanf:"user_message_limit" yaml:"user_message_limit"`
	UserMessageWindow      time.Duration `koanf:"user_message_window" yaml:"user_message_window"`
	ConnectionLimitPerUser int           `koanf:"connection_limit_per_user" yaml:"connection_limit_per_user"`
}

// IsProduction reports whether the broker runs in the production tier.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// RequireTLS reports whether TLS material is mandatory for transport and API.
func (c *Config) RequireTLS() bool {
	return c.IsProduction()
}
