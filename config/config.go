// Package config loads iotmcp configuration from defaults, an optional YAML
// file and IOTMCP_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/localrivet/iotmcp/logx"
	"github.com/localrivet/iotmcp/util/validator"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IOTMCP_LOG_LEVEL.
const EnvPrefix = "IOTMCP"

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    logx.Config  `mapstructure:"log"`
	Filter FilterConfig `mapstructure:"filter"`
}

// ServerConfig describes the MCP server identity.
type ServerConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Instructions string `mapstructure:"instructions"`
}

// FilterConfig bounds key filter decoding. Zero disables the depth limit.
type FilterConfig struct {
	MaxNestingDepth int `mapstructure:"max_nesting_depth"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:    "iotmcp",
			Version: "0.1.0",
		},
		Log: logx.DefaultConfig(),
		Filter: FilterConfig{
			MaxNestingDepth: 16,
		},
	}
}

// Load reads configuration. path is either a directory searched for
// iotmcp.yaml, which may be absent, or a YAML file that must exist. An empty
// path searches the working directory.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicitFile := false
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		v.SetConfigFile(path)
		explicitFile = true
	default:
		v.SetConfigName("iotmcp")
		v.SetConfigType("yaml")
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitFile || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.name", cfg.Server.Name)
	v.SetDefault("server.version", cfg.Server.Version)
	v.SetDefault("server.instructions", cfg.Server.Instructions)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("log.time_format", cfg.Log.TimeFormat)
	v.SetDefault("filter.max_nesting_depth", cfg.Filter.MaxNestingDepth)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	v := validator.NewValidator().
		Required("server.name", c.Server.Name).
		Min("filter.max_nesting_depth", c.Filter.MaxNestingDepth, 0).
		OneOf("log.level", c.Log.Level, "trace", "debug", "info", "warn", "error", "disabled").
		OneOf("log.output", c.Log.Output, "stderr", "stdout", "discard")
	if err := v.Error(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
