// Package config loads engine configuration from an optional YAML file with
// ENGINE_* environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level engine configuration.
type Config struct {
	Listen  ListenConfig  `mapstructure:"listen"`
	Book    BookConfig    `mapstructure:"book"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ListenConfig controls the WebSocket transport's bind address.
type ListenConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// BookConfig bounds the number of distinct symbols the registry will track.
type BookConfig struct {
	MaxSymbols int `mapstructure:"max_symbols"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults returns the configuration used when no file is present and no
// env vars are set: listen on 0.0.0.0:8080, 100 symbols, info-level JSON
// logs.
func Defaults() Config {
	return Config{
		Listen:  ListenConfig{Address: "0.0.0.0", Port: 8080},
		Book:    BookConfig{MaxSymbols: 100},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (if non-empty) over the defaults, then applies ENGINE_*
// environment variable overrides (e.g. ENGINE_LISTEN_PORT). An empty path
// is not an error: the engine runs on defaults alone. A non-empty path that
// cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen.address", cfg.Listen.Address)
	v.SetDefault("listen.port", cfg.Listen.Port)
	v.SetDefault("book.max_symbols", cfg.Book.MaxSymbols)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is within sane bounds.
func (c Config) Validate() error {
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port must be in (0, 65535], got %d", c.Listen.Port)
	}
	if c.Book.MaxSymbols <= 0 {
		return fmt.Errorf("book.max_symbols must be > 0, got %d", c.Book.MaxSymbols)
	}
	return nil
}
