package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration equal to the built-in defaults with a
// broker identity injected, as Load would produce it.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := exampleConfigForTest(t)
	cfg.BrokerID = "test-broker-1"
	cfg.Environment = EnvDevelopment
	return cfg
}

func exampleConfigForTest(t *testing.T) *Config {
	t.Helper()
	t.Setenv(EnvironmentVar, "")
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestValidateRejectsInvariantViolations(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty broker id", func(c *Config) { c.BrokerID = "" }, ErrMissing},
		{"unknown environment", func(c *Config) { c.Environment = "qa" }, ErrInvalid},
		{"empty server list", func(c *Config) { c.Nats.Servers = nil }, ErrMissing},
		{"blank server entry", func(c *Config) { c.Nats.Servers = []string{""} }, ErrInvalid},
		{"negative connect timeout", func(c *Config) { c.Nats.ConnectTimeout = -1 }, ErrInvalid},
		{"negative reconnect delay", func(c *Config) { c.Nats.ReconnectDelay = -1 }, ErrInvalid},
		{"negative max reconnects", func(c *Config) { c.Nats.MaxReconnects = -2 }, ErrInvalid},
		{"missing ingress topic", func(c *Config) { c.Nats.IngressTopic = "" }, ErrMissing},
		{"missing stream name", func(c *Config) { c.Nats.StreamName = "" }, ErrMissing},
		{"bad grpc addr", func(c *Config) { c.API.GRPCAddr = "not-an-addr" }, ErrInvalid},
		{"missing rest addr", func(c *Config) { c.API.RESTAddr = "" }, ErrMissing},
		{"zero concurrent streams", func(c *Config) { c.API.MaxConcurrentStreams = 0 }, ErrInvalid},
		{"zero frame size", func(c *Config) { c.API.MaxFrameSize = 0 }, ErrInvalid},
		{"zero shard count", func(c *Config) { c.Routing.ShardCount = 0 }, ErrInvalid},
		{"zero fanout parallelism", func(c *Config) { c.Routing.FanoutParallelism = 0 }, ErrInvalid},
		{"negative presence ttl", func(c *Config) { c.Routing.PresenceTTL = -1 }, ErrInvalid},
		{"zero cache size", func(c *Config) { c.Routing.CacheSize = 0 }, ErrInvalid},
		{"bad prometheus addr", func(c *Config) { c.Metrics.PrometheusAddr = "9090" }, ErrInvalid},
		{"unknown log level", func(c *Config) { c.Metrics.LogLevel = "trace" }, ErrInvalid},
		{"zero message rate", func(c *Config) { c.Limits.MessagesPerSecond = 0 }, ErrInvalid},
		{"zero burst", func(c *Config) { c.Limits.BurstSize = 0 }, ErrInvalid},
		{"zero max message size", func(c *Config) { c.Limits.MaxMessageSize = 0 }, ErrInvalid},
		{"zero message window", func(c *Config) { c.Limits.UserMessageWindow = 0 }, ErrInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateProductionRequiresTLSForBothSections(t *testing.T) {
	cfg := validConfig(t)
	cfg.Environment = EnvProduction

	err := cfg.validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	cfg.Nats.TLSCert = "/etc/broker/nats.crt"
	cfg.Nats.TLSKey = "/etc/broker/nats.key"
	err = cfg.validate()
	require.Error(t, err, "API TLS material still missing")

	cfg.API.GRPCTLSCert = "/etc/broker/grpc.crt"
	cfg.API.GRPCTLSKey = "/etc/broker/grpc.key"
	assert.NoError(t, cfg.validate())
}

func TestConfigErrorCarriesFieldAndReason(t *testing.T) {
	cfg := validConfig(t)
	cfg.Routing.ShardCount = 0

	err := cfg.validate()
	require.Error(t, err)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "routing.shard_count", cerr.Field)
	assert.Contains(t, err.Error(), "routing.shard_count")
}
