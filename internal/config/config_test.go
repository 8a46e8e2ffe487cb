package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netinventory/internal/adapter"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "./network_inventory.db", cfg.Database.Path)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "", cfg.Scan.DefaultRange)
	assert.Equal(t, DefaultFallbackRange, cfg.Scan.FallbackRange)
	assert.Equal(t, 10, cfg.Scan.SessionListLimit)
	assert.Equal(t, time.Duration(0), cfg.Scan.Timeout.Duration())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "netinventory", cfg.MQTT.TopicPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
version: 1
database:
  path: /var/lib/netinventory/inventory.db
server:
  addr: "127.0.0.1:8080"
scan:
  default_range: 10.0.0.0/24
  timeout: 5m
  session_list_limit: 25
log:
  level: debug
mqtt:
  enabled: true
  broker: tcp://broker:1883
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	assert.Equal(t, "/var/lib/netinventory/inventory.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "10.0.0.0/24", cfg.Scan.DefaultRange)
	assert.Equal(t, 5*time.Minute, cfg.Scan.Timeout.Duration())
	assert.Equal(t, 25, cfg.Scan.SessionListLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)

	// unset keys still get defaults
	assert.Equal(t, DefaultFallbackRange, cfg.Scan.FallbackRange)
	assert.Equal(t, "netinventory", cfg.MQTT.ClientID)
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scan:\n  timeout: forever\n"), 0644))
	_, _, err = LoadFromPath(bad)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scan.Timeout = Duration(90 * time.Second)
	cfg.Scan.DefaultRange = "172.16.0.0/16"
	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, loaded.Scan.Timeout.Duration())
	assert.Equal(t, "172.16.0.0/16", loaded.Scan.DefaultRange)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(EnvAddr, ":9000")
	t.Setenv(EnvDefaultRange, "192.168.50.0/24")
	t.Setenv(EnvScanTimeout, "30s")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMQTTEnabled, "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv())

	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "192.168.50.0/24", cfg.Scan.DefaultRange)
	assert.Equal(t, 30*time.Second, cfg.Scan.Timeout.Duration())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.MQTT.Enabled)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", EnvScanTimeout, "soon"},
		{"bad mqtt flag", EnvMQTTEnabled, "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := DefaultConfig()
			assert.Error(t, cfg.applyEnv())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"cidr range", func(c *Config) { c.Scan.DefaultRange = "10.1.2.0/24" }, false},
		{"single host", func(c *Config) { c.Scan.DefaultRange = "10.1.2.3" }, false},
		{"garbage range", func(c *Config) { c.Scan.DefaultRange = "not-a-network" }, true},
		{"bad fallback", func(c *Config) { c.Scan.FallbackRange = "300.1.1.0/24" }, true},
		{"negative timeout", func(c *Config) { c.Scan.Timeout = Duration(-time.Second) }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"mqtt without broker", func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.Broker = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_RangeErrorsWrapInvalidRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.DefaultRange = "10.0.0.0/33"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrInvalidRange)
	assert.Contains(t, err.Error(), "scan.default_range")
}

func TestFindConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	t.Setenv(EnvConfigPath, path)
	assert.Equal(t, path, FindConfigPath())

	xdg := t.TempDir()
	xdgPath := filepath.Join(xdg, ConfigDirName, "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdgPath), 0755))
	require.NoError(t, os.WriteFile(xdgPath, []byte("version: 1\n"), 0644))

	t.Setenv(EnvConfigPath, filepath.Join(dir, "does-not-exist.yaml"))
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())
	assert.Equal(t, xdgPath, FindConfigPath())

	// a directory with the config file's name is not a config file
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.Mkdir(ConfigFileName, 0755))
	assert.Equal(t, "", FindConfigPath())
}

func TestFindConfigPath_WorkingDirectoryIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(ConfigFileName, []byte("version: 1\n"), 0644))

	got := FindConfigPath()
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, ConfigFileName, filepath.Base(got))
}

func TestUserConfigPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	path, err := UserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, ConfigDirName, "config.yaml"), path)
}
