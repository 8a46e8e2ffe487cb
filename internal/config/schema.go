package config

import (
	"time"

	"netinventory/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Scan     ScanConfig     `yaml:"scan"`
	Log      logger.Config  `yaml:"log"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ScanConfig holds scan orchestration settings
type ScanConfig struct {
	// DefaultRange is scanned when a caller gives no range; empty means auto-detect
	DefaultRange string `yaml:"default_range"`
	// FallbackRange is used when local network detection fails
	FallbackRange string `yaml:"fallback_range"`
	// Timeout bounds a single probe; zero disables it
	Timeout Duration `yaml:"timeout"`
	// NmapPath overrides the nmap binary looked up in PATH
	NmapPath string `yaml:"nmap_path,omitempty"`
	// SessionListLimit is the default number of sessions returned by listings
	SessionListLimit int `yaml:"session_list_limit"`
}

// MQTTConfig holds the optional event publisher settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
