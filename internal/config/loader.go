package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/brokerd/internal/logfields"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	koanfenv "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvironmentVar selects the configuration tier and the environment-named
	// config file.
	EnvironmentVar = "ENVIRONMENT"

	// envPrefix namespaces broker environment overrides; nested keys are
	// joined with a double underscore (BROKER__ROUTING__SHARD_COUNT).
	envPrefix = "BROKER__"

	defaultConfigDir = "config"
)

// Load resolves the broker configuration from the conventional config/
// directory. Sources are merged lowest precedence first:
//
//  1. built-in defaults
//  2. config/default.yaml
//  3. config/{ENVIRONMENT}.yaml
//  4. config/local.yaml (untracked developer overrides)
//  5. BROKER__* environment variables
//
// Missing files are not errors; a malformed file is. The merged result is
// validated before it is returned, so a non-nil Config always satisfies every
// invariant.
func Load() (*Config, error) {
	return LoadFrom(defaultConfigDir)
}

// LoadFrom is Load with an explicit configuration directory.
func LoadFrom(dir string) (*Config, error) {
	loadDotEnv()

	environment := os.Getenv(EnvironmentVar)
	if environment == "" {
		environment = EnvDevelopment
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, sourceErr("defaults", err)
	}

	for _, name := range []string{"default", environment, "local"} {
		path := filepath.Join(dir, name+".yaml")
		if _, err := os.Stat(path); err != nil {
			continue // every file source is optional
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, sourceErr(path, err)
		}
	}

	if err := k.Load(koanfenv.Provider(envPrefix, ".", envKeyToPath), nil); err != nil {
		return nil, sourceErr("environment", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag:           "koanf",
		DecoderConfig: decoderConfig(&cfg),
	}); err != nil {
		return nil, sourceErr("merge", err)
	}

	// Computed defaults: injected only when no source supplied them.
	if cfg.BrokerID == "" {
		cfg.BrokerID = generateBrokerID()
	}
	if cfg.Environment == "" {
		cfg.Environment = environment
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration resolved",
		logfields.BrokerID(cfg.BrokerID),
		logfields.Environment(cfg.Environment),
		logfields.ConfigDir(dir))

	return &cfg, nil
}

// loadDotEnv preloads .env / .env.local into the process environment before
// the environment source is read. Existing variables are never overridden and
// a missing file is not an error.
func loadDotEnv() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("loaded environment variables", logfields.Path(path))
	}
}

// envKeyToPath maps BROKER__ROUTING__SHARD_COUNT to routing.shard_count.
// Returning an empty string drops the variable.
func envKeyToPath(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	if key == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// decoderConfig decodes merged values into the schema: duration strings become
// time.Duration and comma-separated scalars fan out into string slices, so
// BROKER__NATS__SERVERS=nats://a:4222,nats://b:4222 round-trips correctly.
func decoderConfig(out any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:           out,
		WeaklyTypedInput: true,
	}
}

// generateBrokerID derives a process-unique broker identity from host
// identity, process id and creation time.
func generateBrokerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().Unix())
}
