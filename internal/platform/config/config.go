// Package config loads server configuration from a YAML file with environment
// variable overrides, following the layering the rest of the examples pack uses
// for its service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Dispatcher  DispatcherConfig  `yaml:"dispatcher"`
	Definitions DefinitionsConfig `yaml:"definitions"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the entity store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DispatcherConfig configures the polling dispatcher loop.
type DispatcherConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefinitionsConfig configures where workflow template YAML files live.
type DefinitionsConfig struct {
	Dir     string `yaml:"dir"`
	Default string `yaml:"default"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "geoworkflow.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Dispatcher: DispatcherConfig{
			PollInterval: 2 * time.Second,
		},
		Definitions: DefinitionsConfig{
			Dir:     "templates",
			Default: "example_workflow",
		},
	}
}

// Load builds a Config from the optional YAML file at configPath (skipped if it
// does not exist) and then applies environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEOWORKFLOW_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("GEOWORKFLOW_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("GEOWORKFLOW_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("GEOWORKFLOW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GEOWORKFLOW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("GEOWORKFLOW_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Dispatcher.PollInterval = d
		}
	}
	if v := os.Getenv("GEOWORKFLOW_DEFINITIONS_DIR"); v != "" {
		c.Definitions.Dir = v
	}
}
