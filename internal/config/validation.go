package config

import (
	"net"
	"time"
)

var knownEnvironments = map[string]bool{
	EnvDevelopment: true,
	EnvStaging:     true,
	EnvProduction:  true,
}

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validate runs the post-merge invariant checks. Validation failures are
// terminal: the caller must not start the broker on any error returned here.
func (c *Config) validate() error {
	v := &configValidator{config: c}
	return v.validate()
}

// configValidator walks the configuration sections in dependency order,
// identity first since the TLS rules depend on the resolved environment.
type configValidator struct {
	config *Config
}

func (v *configValidator) validate() error {
	checks := []func() error{
		v.validateIdentity,
		v.validateNats,
		v.validateAPI,
		v.validateRouting,
		v.validateMetrics,
		v.validateLimits,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (v *configValidator) validateIdentity() error {
	if v.config.BrokerID == "" {
		return missingErr("broker_id")
	}
	if !knownEnvironments[v.config.Environment] {
		return invalidErr("environment", "unknown environment %q (expected development, staging or production)", v.config.Environment)
	}
	return nil
}

func (v *configValidator) validateNats() error {
	n := &v.config.Nats
	if len(n.Servers) == 0 {
		return missingErr("nats.servers")
	}
	for _, s := range n.Servers {
		if s == "" {
			return invalidErr("nats.servers", "empty server address")
		}
	}
	if v.config.RequireTLS() && (n.TLSCert == "" || n.TLSKey == "") {
		return invalidErr("nats.tls_cert", "production requires TLS material for the NATS transport")
	}
	if err := nonNegativeDuration("nats.connect_timeout", n.ConnectTimeout); err != nil {
		return err
	}
	if err := nonNegativeDuration("nats.reconnect_delay", n.ReconnectDelay); err != nil {
		return err
	}
	if n.MaxReconnects < 0 {
		return invalidErr("nats.max_reconnects", "must not be negative, got %d", n.MaxReconnects)
	}
	if n.IngressTopic == "" {
		return missingErr("nats.ingress_topic")
	}
	if n.StreamName == "" {
		return missingErr("nats.stream_name")
	}
	if n.ConsumerName == "" {
		return missingErr("nats.consumer_name")
	}
	return nil
}

func (v *configValidator) validateAPI() error {
	a := &v.config.API
	if err := bindAddr("api.grpc_addr", a.GRPCAddr); err != nil {
		return err
	}
	if err := bindAddr("api.rest_addr", a.RESTAddr); err != nil {
		return err
	}
	if v.config.RequireTLS() && (a.GRPCTLSCert == "" || a.GRPCTLSKey == "") {
		return invalidErr("api.grpc_tls_cert", "production requires TLS material for the API surface")
	}
	if err := positiveInt("api.max_concurrent_streams", a.MaxConcurrentStreams); err != nil {
		return err
	}
	return positiveInt("api.max_frame_size", a.MaxFrameSize)
}

func (v *configValidator) validateRouting() error {
	r := &v.config.Routing
	if r.ShardCount < 1 {
		return invalidErr("routing.shard_count", "must be at least 1, got %d", r.ShardCount)
	}
	if err := positiveInt("routing.fanout_batch_size", r.FanoutBatchSize); err != nil {
		return err
	}
	if r.FanoutParallelism < 1 {
		return invalidErr("routing.fanout_parallelism", "must be at least 1, got %d", r.FanoutParallelism)
	}
	if err := nonNegativeDuration("routing.presence_ttl", r.PresenceTTL); err != nil {
		return err
	}
	if err := nonNegativeDuration("routing.typing_ttl", r.TypingTTL); err != nil {
		return err
	}
	if err := positiveInt("routing.cache_size", r.CacheSize); err != nil {
		return err
	}
	return positiveInt("routing.bloom_filter_size", r.BloomFilterSize)
}

func (v *configValidator) validateMetrics() error {
	m := &v.config.Metrics
	if err := bindAddr("metrics.prometheus_addr", m.PrometheusAddr); err != nil {
		return err
	}
	if !knownLogLevels[m.LogLevel] {
		return invalidErr("metrics.log_level", "unknown log level %q", m.LogLevel)
	}
	return nil
}

func (v *configValidator) validateLimits() error {
	l := &v.config.Limits
	fields := []struct {
		name  string
		value int
	}{
		{"limits.messages_per_second", l.MessagesPerSecond},
		{"limits.burst_size", l.BurstSize},
		{"limits.max_message_size", l.MaxMessageSize},
		{"limits.max_recipients_per_message", l.MaxRecipientsPerMessage},
		{"limits.max_group_size", l.MaxGroupSize},
		{"limits.user_message_limit", l.UserMessageLimit},
		{"limits.connection_limit_per_user", l.ConnectionLimitPerUser},
	}
	for _, f := range fields {
		if err := positiveInt(f.name, f.value); err != nil {
			return err
		}
	}
	if l.UserMessageWindow <= 0 {
		return invalidErr("limits.user_message_window", "must be positive, got %s", l.UserMessageWindow)
	}
	return nil
}

func positiveInt(field string, value int) error {
	if value <= 0 {
		return invalidErr(field, "must be positive, got %d", value)
	}
	return nil
}

func nonNegativeDuration(field string, value time.Duration) error {
	if value < 0 {
		return invalidErr(field, "must not be negative, got %s", value)
	}
	return nil
}

func bindAddr(field, addr string) error {
	if addr == "" {
		return missingErr(field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return invalidErr(field, "not a host:port address: %v", err)
	}
	return nil
}
