// Package config provides configuration management for netinventory.
//
// Settings come from three layers, later layers winning:
//  1. a YAML file (see FindConfigPath), or built-in defaults when none exists
//  2. environment variables, optionally seeded from a .env file
//  3. command-line flags applied by the caller
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"netinventory/internal/adapter"
)

// Environment variables that override file settings
const (
	EnvDBPath       = "NETINVENTORY_DB_PATH"
	EnvAddr         = "NETINVENTORY_ADDR"
	EnvDefaultRange = "NETINVENTORY_DEFAULT_RANGE"
	EnvScanTimeout  = "NETINVENTORY_SCAN_TIMEOUT"
	EnvLogLevel     = "NETINVENTORY_LOG_LEVEL"
	EnvMQTTBroker   = "NETINVENTORY_MQTT_BROKER"
	EnvMQTTEnabled  = "NETINVENTORY_MQTT_ENABLED"
)

// DefaultFallbackRange is scanned when the local network cannot be detected
const DefaultFallbackRange = "192.168.1.0/24"

// Load finds and loads the config file, or returns defaults if none found.
// A .env file in the working directory, if present, is loaded into the
// environment first.
func Load() (*Config, string, error) {
	_ = godotenv.Load()

	path := FindConfigPath()

	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		var err error
		cfg, _, err = LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to path, creating its directory
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./network_inventory.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Scan.FallbackRange == "" {
		c.Scan.FallbackRange = DefaultFallbackRange
	}
	if c.Scan.SessionListLimit <= 0 {
		c.Scan.SessionListLimit = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "netinventory"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "netinventory"
	}
}

// applyEnv overrides file settings with environment variables
func (c *Config) applyEnv() error {
	c.Database.Path = getEnv(EnvDBPath, c.Database.Path)
	c.Server.Addr = getEnv(EnvAddr, c.Server.Addr)
	c.Scan.DefaultRange = getEnv(EnvDefaultRange, c.Scan.DefaultRange)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.MQTT.Broker = getEnv(EnvMQTTBroker, c.MQTT.Broker)

	if v := os.Getenv(EnvScanTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvScanTimeout, err)
		}
		c.Scan.Timeout = Duration(d)
	}

	if v := os.Getenv(EnvMQTTEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMQTTEnabled, err)
		}
		c.MQTT.Enabled = enabled
	}

	return nil
}

// Validate checks settings that would otherwise fail deep inside a scan
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Scan.DefaultRange != "" {
		if err := adapter.ValidateRange(c.Scan.DefaultRange); err != nil {
			return fmt.Errorf("scan.default_range: %w", err)
		}
	}
	if err := adapter.ValidateRange(c.Scan.FallbackRange); err != nil {
		return fmt.Errorf("scan.fallback_range: %w", err)
	}
	if c.Scan.Timeout < 0 {
		return fmt.Errorf("scan.timeout must not be negative")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	target := c.Scan.DefaultRange
	if target == "" {
		target = "auto (fallback " + c.Scan.FallbackRange + ")"
	}
	summary := fmt.Sprintf("Database: %s, Listen: %s\n", c.Database.Path, c.Server.Addr)
	summary += fmt.Sprintf("Scan target: %s, Timeout: %s", target, c.Scan.Timeout.Duration())
	if c.MQTT.Enabled {
		summary += fmt.Sprintf("\nMQTT: %s (prefix %s)", c.MQTT.Broker, c.MQTT.TopicPrefix)
	}
	return summary
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
