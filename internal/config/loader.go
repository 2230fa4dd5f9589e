package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. LYREBIRD_SERVER_PORT.
const envPrefix = "LYREBIRD"

var (
	mu     sync.Mutex
	loaded *Config
)

// Load builds the configuration with precedence runtime overrides >
// environment > defaults, then caches it for GetConfig. Overrides use
// the same nested keys as the defaults document.
func Load(_ context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	for key, value := range flatten("", defaults()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, override := range overrides {
		for key, value := range flatten("", override) {
			v.Set(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	mu.Lock()
	loaded = &cfg
	mu.Unlock()
	return &cfg, nil
}

// GetConfig returns the last loaded configuration, or nil before Load.
func GetConfig() *Config {
	mu.Lock()
	defer mu.Unlock()
	return loaded
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Engine.URL == "" {
		return fmt.Errorf("engine.url must be set")
	}
	if cfg.Mirror.Enabled && cfg.Mirror.Bucket == "" {
		return fmt.Errorf("mirror.bucket must be set when mirroring is enabled")
	}
	return nil
}

// flatten turns a nested defaults document into dotted viper keys.
func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}
