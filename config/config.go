// Package config holds the valve registry, the settings file loader and the
// process-wide debug logger.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var Debug = false
var DebugLog *log.Logger

// envKeys are valves that may be supplied through the environment. They win
// over the settings file so keys need not be written to disk.
var envKeys = []string{
	"EXA_API_KEY",
	"OPENROUTER_API_KEY",
	"ANTHROPIC_API_KEY",
	"PERPLEXITY_API_KEY",
	"LLM_PROVIDER",
	"OLLAMA_BASE_URL",
}

func CheckDebug() bool {
	debug := os.Getenv("SEARCHPIPE_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	if err := EnsureDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create data directory %s: %v\n", dataDir, err)
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: the log may contain request metadata
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (SEARCHPIPE_DEBUG=%s) ===", os.Getenv("SEARCHPIPE_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// EnvSettings returns the valves found in the environment.
func EnvSettings() map[string]any {
	out := make(map[string]any)
	for _, key := range envKeys {
		if value := os.Getenv(key); value != "" {
			out[key] = value
		}
	}
	return out
}

// Load reads the settings file at path (the default location when empty),
// overlays environment variables and returns the resulting valve mapping.
// A missing file is not an error.
func Load(path string) (map[string]any, error) {
	if path == "" {
		path = GetSettingsFilePath()
	}

	fileSettings, err := LoadSettings(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return Merge(fileSettings, EnvSettings()), nil
}
