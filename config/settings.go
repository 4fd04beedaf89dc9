package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSettings decodes a flat TOML settings file into a valve mapping.
// Returns an empty mapping if the file doesn't exist.
func LoadSettings(path string) (map[string]any, error) {
	if !FileExists(path) {
		return map[string]any{}, nil
	}

	settings := make(map[string]any)
	md, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 && DebugLog != nil {
		DebugLog.Printf("Settings file %s has undecoded keys: %v", path, undecoded)
	}

	return settings, nil
}

// SaveSettings writes a valve mapping as TOML. Secret valves are written too,
// so the file is created 0600.
func SaveSettings(path string, settings map[string]any) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return nil
}

// CreateDefaultSettings writes the commented template unless a file exists.
func CreateDefaultSettings(path string) error {
	if FileExists(path) {
		return nil
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := GenerateConfigTemplate()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
