package config

import (
	"path/filepath"
	"testing"
)

func TestDirOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfigDir, dir)
	t.Setenv(envDataDir, filepath.Join(dir, "data"))

	if got := GetSettingsFilePath(); got != filepath.Join(dir, "settings.toml") {
		t.Errorf("GetSettingsFilePath() = %q", got)
	}
	if got := GetDefaultDataDir(); got != filepath.Join(dir, "data") {
		t.Errorf("GetDefaultDataDir() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("SP_TEST_DIR", "/srv/x")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/a/b", "/home/tester/a/b"},
		{"$SP_TEST_DIR/settings.toml", "/srv/x/settings.toml"},
		{"/tmp//a/", "/tmp/a"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
