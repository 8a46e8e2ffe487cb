package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "NETINVENTORY_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "netinventory.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "netinventory"

	dirConfigFile = "config.yaml"
	systemDir     = "/etc"
)

// searchPaths lists config file candidates, highest priority first:
// $NETINVENTORY_CONFIG, ./netinventory.yaml, $XDG_CONFIG_HOME/netinventory,
// ~/.config/netinventory, then /etc/netinventory.
func searchPaths() []string {
	var paths []string
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, dirConfigFile))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, dirConfigFile))
	}
	return append(paths, filepath.Join(systemDir, ConfigDirName, dirConfigFile))
}

// FindConfigPath returns the first existing candidate from searchPaths as an
// absolute path, or "" when there is none
func FindConfigPath() string {
	for _, candidate := range searchPaths() {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs
		}
		return candidate
	}
	return ""
}

// UserConfigPath is the per-user config file location
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, ConfigDirName, dirConfigFile), nil
}
