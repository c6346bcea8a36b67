// Package config loads meter configuration from a YAML file with
// environment overrides (prefix METER_).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration.
type Config struct {
	Capture  CaptureConfig  `mapstructure:"capture"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Meter    MeterConfig    `mapstructure:"meter"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CaptureConfig points at the packet relay.
type CaptureConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// PublishConfig is the viewer-facing websocket listener.
type PublishConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// MeterConfig tunes the aggregation core.
type MeterConfig struct {
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

// DatabaseConfig enables raid-end encounter persistence.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration file. A missing file is not an error; the
// defaults plus environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("capture.endpoint", "ws://127.0.0.1:6040/frames")
	v.SetDefault("publish.address", "127.0.0.1:6041")
	v.SetDefault("publish.path", "/ws")
	v.SetDefault("meter.snapshot_interval", 100*time.Millisecond)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("METER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Database.Enabled && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database enabled but no dsn configured")
	}
	return &cfg, nil
}
