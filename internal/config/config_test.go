package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "data", "test.db")+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if got := cfg.Booking.AllowedDurations; len(got) != 2 || got[0] != 45 || got[1] != 60 {
		t.Errorf("AllowedDurations = %v, want [45 60]", got)
	}
	if cfg.Booking.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", cfg.Booking.DefaultTimezone)
	}
	if cfg.Notifications.Burst != 10 {
		t.Errorf("Notifications.Burst = %d, want 10", cfg.Notifications.Burst)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-key")
	dir := t.TempDir()
	path := writeConfig(t, `
server:
  api_key: ${TEST_API_KEY}
database:
  path: `+filepath.Join(dir, "test.db")+`
booking:
  allowed_durations: [30, 45, 60]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want env expansion", cfg.Server.APIKey)
	}
	if got := cfg.Booking.AllowedDurations; len(got) != 3 || got[0] != 30 {
		t.Errorf("AllowedDurations = %v, want [30 45 60]", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
