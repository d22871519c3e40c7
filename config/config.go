package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config captures every startup input for process-wide configuration,
// plus the rate-limit ceiling, the Redis connection for the
// confirmation queue, and the ledger issuer address.
type Config struct {
	Server struct {
		StateFilePath   string `mapstructure:"state_file_path"`
		GatewayBaseURL  string `mapstructure:"gateway_base_url"`
		TeamModeEnabled bool   `mapstructure:"team_mode_enabled"`
		MutableURIToken bool   `mapstructure:"mutable_uri_token"`
		DevFallback     bool   `mapstructure:"dev_fallback"`
		RateLimitPerKey int    `mapstructure:"rate_limit_per_key"`
	}

	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	}

	Ledger struct {
		Issuer string `mapstructure:"issuer"`
	}
}

// Default returns the configuration the core boots with when no
// config file is present.
func Default() Config {
	var cfg Config
	cfg.Server.StateFilePath = "./state/xvault-state.json"
	cfg.Server.GatewayBaseURL = ""
	cfg.Server.TeamModeEnabled = true
	cfg.Server.MutableURIToken = false
	cfg.Server.DevFallback = false
	cfg.Server.RateLimitPerKey = 5
	return cfg
}

// Load reads "config.yaml" (or the named file) from configPath,
// falling back to Default() when no file is present.
func Load(name, configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(name)
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("XVAULT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("fail to read config, err: %w", err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("fail to decode config into struct, err: %w", err)
	}
	return cfg, nil
}
