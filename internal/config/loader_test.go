package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFromEmptySourceSetYieldsDefaults(t *testing.T) {
	t.Setenv(EnvironmentVar, "")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 64, cfg.Routing.ShardCount)
	assert.Equal(t, 10000, cfg.Limits.MessagesPerSecond)
	assert.Equal(t, "0.0.0.0:50051", cfg.API.GRPCAddr)
	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.Nats.Servers)
	assert.Equal(t, 5*time.Second, cfg.Nats.ConnectTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Routing.PresenceTTL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Metrics.PrometheusAddr)
	assert.NotEmpty(t, cfg.BrokerID)
}

func TestLoadFromEnvironmentVariableOverridesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVar, "")
	t.Setenv("BROKER__ROUTING__SHARD_COUNT", "128")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Routing.ShardCount)
	// Everything else stays default.
	assert.Equal(t, 100, cfg.Routing.FanoutBatchSize)
	assert.Equal(t, 10000, cfg.Limits.MessagesPerSecond)
}

func TestLoadFromEnvironmentVariableParsesTypedValues(t *testing.T) {
	t.Setenv(EnvironmentVar, "")
	t.Setenv("BROKER__NATS__CONNECT_TIMEOUT", "30s")
	t.Setenv("BROKER__NATS__SERVERS", "nats://a:4222,nats://b:4222")
	t.Setenv("BROKER__METRICS__ENABLE_TRACING", "true")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Nats.ConnectTimeout)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.Nats.Servers)
	assert.True(t, cfg.Metrics.EnableTracing)
}

func TestLoadFromSourcePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", "routing:\n  shard_count: 10\n  cache_size: 777\n")
	writeConfigFile(t, dir, "staging.yaml", "routing:\n  shard_count: 20\n")
	writeConfigFile(t, dir, "local.yaml", "routing:\n  shard_count: 30\n")
	t.Setenv(EnvironmentVar, "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	// local.yaml beats the environment file which beats the base file.
	assert.Equal(t, 30, cfg.Routing.ShardCount)
	// A key only the base file sets falls through untouched.
	assert.Equal(t, 777, cfg.Routing.CacheSize)
	// Untouched keys keep their built-in defaults.
	assert.Equal(t, 100, cfg.Routing.FanoutBatchSize)
	assert.Equal(t, "staging", cfg.Environment)

	// The environment namespace outranks every file source.
	t.Setenv("BROKER__ROUTING__SHARD_COUNT", "40")
	cfg, err = LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Routing.ShardCount)
}

func TestLoadFromEnvironmentFileSelection(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "staging.yaml", "routing:\n  shard_count: 99\n")
	t.Setenv(EnvironmentVar, "development")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	// staging.yaml must not apply when ENVIRONMENT selects development.
	assert.Equal(t, 64, cfg.Routing.ShardCount)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
}

func TestLoadFromProductionWithoutTLSFails(t *testing.T) {
	t.Setenv(EnvironmentVar, "production")

	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadFromProductionWithTLSSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "production.yaml", `
nats:
  tls_cert: /etc/broker/nats.crt
  tls_key: /etc/broker/nats.key
api:
  grpc_tls_cert: /etc/broker/grpc.crt
  grpc_tls_key: /etc/broker/grpc.key
`)
	t.Setenv(EnvironmentVar, "production")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.True(t, cfg.RequireTLS())
	assert.Equal(t, "/etc/broker/nats.crt", cfg.Nats.TLSCert)
}

func TestLoadFromMalformedFileIsSourceError(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", "nats: [unclosed\n")
	t.Setenv(EnvironmentVar, "")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
}

func TestLoadFromZeroLimitIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", "limits:\n  messages_per_second: 0\n")
	t.Setenv(EnvironmentVar, "")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadFromIsIdempotentExceptGeneratedID(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", "routing:\n  shard_count: 12\n")
	t.Setenv(EnvironmentVar, "")

	first, err := LoadFrom(dir)
	require.NoError(t, err)
	second, err := LoadFrom(dir)
	require.NoError(t, err)

	// The broker id carries a creation timestamp; everything else must match.
	first.BrokerID = ""
	second.BrokerID = ""
	assert.Equal(t, first, second)
}

func TestLoadFromSuppliedBrokerIDIsKept(t *testing.T) {
	t.Setenv(EnvironmentVar, "")
	t.Setenv("BROKER__BROKER_ID", "broker-7")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "broker-7", cfg.BrokerID)
}
