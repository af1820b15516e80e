package storage

import (
	"os"
	"path/filepath"
)

const appName = "buildpace"

// Environment overrides for the default locations.
const (
	EnvConfigPath = "BUILDPACE_CONFIG"
	EnvDataDir    = "BUILDPACE_DATA_DIR"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the TOML config path.
func DefaultConfigPath() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultDataDir returns the directory holding build orders and history.
func DefaultDataDir() string {
	if v := os.Getenv(EnvDataDir); v != "" {
		return v
	}
	return filepath.Join(XDGDataHome(), appName)
}

// BuildOrderDir returns the build order directory under dataDir.
func BuildOrderDir(dataDir string) string {
	return filepath.Join(dataDir, "build-orders")
}

// HistoryPath returns the SQLite history path under dataDir.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// LogPath returns the log file path under dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, appName+".log")
}
