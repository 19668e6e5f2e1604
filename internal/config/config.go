// Package config loads server settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// SKIRMISH_SERVER_GRPC_ADDRESS.
const EnvPrefix = "SKIRMISH"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all server configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Match     MatchConfig     `mapstructure:"match"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// StorageConfig selects where finished match records go. DSN is a file
// path for sqlite and a connection string for postgres.
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// MatchConfig holds defaults for new matches. A zero seed means one is
// derived from the clock at creation.
type MatchConfig struct {
	Seed          int64         `mapstructure:"seed"`
	Decks         []string      `mapstructure:"decks"`
	Leaders       []string      `mapstructure:"leaders"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	MaxStackIter  int           `mapstructure:"max_stack_iterations"`
	ReplayDir     string        `mapstructure:"replay_dir"`
}

// CatalogConfig points at a card catalog file. An empty path uses the
// embedded catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type AuthConfig struct {
	SeatSecret   string        `mapstructure:"seat_secret"`
	SeatTokenTTL time.Duration `mapstructure:"seat_token_ttl"`
}

// Load reads configuration from path. A missing file is not an error:
// defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "skirmish.db")
	v.SetDefault("storage.max_conns", 10)

	v.SetDefault("match.seed", 0)
	v.SetDefault("match.decks", []string{"balanced", "aggro"})
	v.SetDefault("match.leaders", []string{})
	v.SetDefault("match.action_timeout", 5*time.Minute)
	v.SetDefault("match.max_stack_iterations", 1000)
	v.SetDefault("match.replay_dir", "")

	v.SetDefault("catalog.path", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "skirmish-server")

	v.SetDefault("auth.seat_secret", "")
	v.SetDefault("auth.seat_token_ttl", 24*time.Hour)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.GRPC.Address == "" {
		return errors.New("server.grpc.address is required")
	}
	if c.Server.WebSocket.Address == "" {
		return errors.New("server.websocket.address is required")
	}
	if len(c.Match.Decks) > 2 || len(c.Match.Leaders) > 2 {
		return errors.New("match.decks and match.leaders take at most two entries")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}
