// Package config loads the fatesmith.yml configuration consumed by the CLI
// and the HTTP server.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the Fatesmith configuration.
type Config struct {
	CollectionsDir string        `mapstructure:"collections_dir"`
	Server         ServerConfig  `mapstructure:"server"`
	History        HistoryConfig `mapstructure:"history"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// HistoryConfig represents roll-history storage configuration.
type HistoryConfig struct {
	// Path is the sqlite database file; empty disables history.
	Path string `mapstructure:"path"`
	// Keep caps how many rolls Prune retains.
	Keep int `mapstructure:"keep"`
}

// Load reads fatesmith.yml or fatesmith.yaml from the working directory,
// falling back to defaults when no file exists. Environment variables
// override file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("collections_dir", "collections")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8460)
	v.SetDefault("history.path", "")
	v.SetDefault("history.keep", 1000)

	v.SetConfigName("fatesmith")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FATESMITH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	return &cfg, nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
