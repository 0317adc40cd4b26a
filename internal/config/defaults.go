package config

import "time"

// defaultValues is the single declarative table of built-in defaults, keyed by
// dotted section.field address. Every Config field except the computed identity
// pair (broker_id, environment) and the optional credential/TLS fields must
// have an entry here; defaults_selfcheck_test.go enforces that.
func defaultValues() map[string]any {
	return map[string]any{
		"nats.servers":             []string{"nats://localhost:4222"},
		"nats.ingress_topic":       "broker.ingress",
		"nats.egress_user_prefix":  "gateway.user",
		"nats.egress_group_prefix": "gateway.group",
		"nats.control_topic":       "broker.control",
		"nats.stream_name":         "messages",
		"nats.consumer_name":       "broker-consumer",
		"nats.connect_timeout":     5 * time.Second,
		"nats.reconnect_delay":     2 * time.Second,
		"nats.max_reconnects":      0,

		"api.grpc_addr":              "0.0.0.0:50051",
		"api.rest_addr":              "0.0.0.0:8080",
		"api.max_concurrent_streams": 10000,
		"api.max_frame_size":         1048576, // 1MB

		"routing.shard_count":        64,
		"routing.fanout_batch_size":  100,
		"routing.fanout_parallelism": 16,
		"routing.presence_ttl":       5 * time.Minute,
		"routing.typing_ttl":         10 * time.Second,
		"routing.cache_size":         10000,
		"routing.bloom_filter_size":  100000,

		"metrics.prometheus_addr": "0.0.0.0:9090",
		"metrics.log_level":       "info",
		"metrics.enable_tracing":  false,

		"limits.messages_per_second":         10000,
		"limits.burst_size":                  15000,
		"limits.max_message_size":            65536, // 64KB
		"limits.max_recipients_per_message":  1000,
		"limits.max_group_size":              100000,
		"limits.user_message_limit":          100,
		"limits.user_message_window":         time.Minute,
		"limits.connection_limit_per_user":   10,
	}
}
