package command

import (
	"fmt"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/infra/confloader"
	"github.com/hail-framework/framework-sub003/internal/redis/client"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
)

// Config is the redis-cli configuration. Client settings sit at the top
// level, so REDIS_ADDRESS and REDIS_PASSWORD configure the connection.
type Config struct {
	client.Config `koanf:",squash"`

	Log     logger.Config `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	// Output is text, table, json or yaml.
	Output string `koanf:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9121".
	Addr string `koanf:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Config: client.DefaultConfig(),
		Log:    logger.Config{Level: "warn", Format: "text"},
		Output: "text",
	}
}

// LoadConfig layers the config file, the environment and overrides over
// the defaults and validates the result.
func LoadConfig(file string, overrides map[string]any) (Config, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(file),
		confloader.WithFlags(overrides),
	)

	cfg := DefaultConfig()
	if err := loader.Load(&cfg); err != nil {
		return Config{}, nil, err
	}
	if err := cfg.Config.Validate(); err != nil {
		return Config{}, nil, err
	}
	if cfg.Log.Level != "" {
		switch strings.ToLower(cfg.Log.Level) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return Config{}, nil, fmt.Errorf("invalid log level %q", cfg.Log.Level)
		}
	}
	return cfg, loader, nil
}
