package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/hourly/internal/domain/contract"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Display   DisplayConfig   `yaml:"display"`
	Tracking  TrackingConfig  `yaml:"tracking"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the MCP server is reached: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "sqlite", "file" or "memory".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
	// DataDir holds one JSON file per collection for the file driver.
	DataDir  string `yaml:"data_dir"`
	SeedDemo bool   `yaml:"seed_demo"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig controls bearer-token auth. With auth disabled every caller
// acts as the default actor.
type AuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DefaultActor string `yaml:"default_actor"`
	DefaultRole  string `yaml:"default_role"`
}

type DisplayConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
}

type TrackingConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			Path:     "hourly.db",
			DataDir:  "data",
			SeedDemo: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled:      false,
			DefaultActor: "admin",
			DefaultRole:  string(contract.RoleAdmin),
		},
		Display: DisplayConfig{
			CurrencySymbol: "$",
		},
		Tracking: TrackingConfig{
			PollInterval: 10 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("HOURLY_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("HOURLY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("HOURLY_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HOURLY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("HOURLY_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if driver := os.Getenv("HOURLY_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dbPath := os.Getenv("HOURLY_DB_PATH"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if dir := os.Getenv("HOURLY_DATA_DIR"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	if level := os.Getenv("HOURLY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if enabled := os.Getenv("HOURLY_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HOURLY_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if symbol, ok := os.LookupEnv("HOURLY_CURRENCY_SYMBOL"); ok {
		cfg.Display.CurrencySymbol = symbol
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	if _, err := contract.ParseRole(c.Auth.DefaultRole); err != nil {
		return fmt.Errorf("auth.default_role: %w", err)
	}
	if c.Auth.Enabled && c.Storage.Driver != DriverSQLite {
		return fmt.Errorf("auth requires the %s storage driver", DriverSQLite)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Tracking.PollInterval <= 0 {
		return fmt.Errorf("tracking.poll_interval must be positive")
	}
	return nil
}

// DefaultActor is the actor used when auth is disabled.
func (c Config) DefaultActor() contract.Actor {
	return contract.Actor{ID: c.Auth.DefaultActor, Role: contract.Role(c.Auth.DefaultRole)}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
