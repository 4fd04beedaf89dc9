package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName = "searchpipe"

	// Directory overrides, mainly for containers and tests.
	envConfigDir = "SEARCHPIPE_CONFIG_DIR"
	envDataDir   = "SEARCHPIPE_DATA_DIR"
)

// GetConfigDir returns the directory holding settings.toml:
// $SEARCHPIPE_CONFIG_DIR, else ~/.config/searchpipe.
func GetConfigDir() string {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return ExpandPath(dir)
	}
	return filepath.Join(GetHomeDir(), ".config", appName)
}

// GetDefaultDataDir returns where debug.log and transcripts.db live:
// $SEARCHPIPE_DATA_DIR, else %LOCALAPPDATA%\searchpipe on Windows and
// ~/.local/share/searchpipe elsewhere.
func GetDefaultDataDir() string {
	if dir := os.Getenv(envDataDir); dir != "" {
		return ExpandPath(dir)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName)
		}
		return filepath.Join(GetHomeDir(), "AppData", "Local", appName)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appName)
}

// GetSettingsFilePath returns the path to settings.toml
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetHomeDir returns the user's home directory, or the filesystem root when
// none is known.
func GetHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		return "C:\\"
	}
	return "/"
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		return GetHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates a directory with user-only access if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
