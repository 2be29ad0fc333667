package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettingsMissingFile(t *testing.T) {
	cfg, err := loadSettingsFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file must yield defaults, got %v", err)
	}
	if cfg.ServerAddress() != "127.0.0.1:8000" {
		t.Fatalf("address = %q", cfg.ServerAddress())
	}
	if cfg.IdleTimeout() != 60*time.Second {
		t.Fatalf("idle timeout = %v", cfg.IdleTimeout())
	}
	if cfg.DefaultMode() != "agent" {
		t.Fatalf("mode = %q", cfg.DefaultMode())
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("level = %q", cfg.LogLevel())
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	path := writeSettings(t, `
[server]
address = "http://chat.internal:9000/"

[stream]
idle_timeout_seconds = 15

[chat]
default_mode = "plan"

[logging]
level = "debug"

[storage]
backend = "file"
path = "/tmp/custom-overlays.json"
`)
	cfg, err := loadSettingsFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerAddress() != "chat.internal:9000" {
		t.Fatalf("address = %q", cfg.ServerAddress())
	}
	if cfg.ServerBaseURL() != "http://chat.internal:9000" {
		t.Fatalf("base url = %q", cfg.ServerBaseURL())
	}
	if cfg.IdleTimeout() != 15*time.Second {
		t.Fatalf("idle timeout = %v", cfg.IdleTimeout())
	}
	if cfg.DefaultMode() != "plan" {
		t.Fatalf("mode = %q", cfg.DefaultMode())
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("level = %q", cfg.LogLevel())
	}
	storePath, err := cfg.OverlayStorePath()
	if err != nil {
		t.Fatalf("overlay path: %v", err)
	}
	if storePath != "/tmp/custom-overlays.json" {
		t.Fatalf("overlay path = %q", storePath)
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := writeSettings(t, `
[stream]
idle_timeout_seconds = 5
`)
	cfg, err := loadSettingsFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IdleTimeout() != 5*time.Second {
		t.Fatalf("idle timeout = %v", cfg.IdleTimeout())
	}
	// untouched sections keep their defaults
	if cfg.ServerAddress() != "127.0.0.1:8000" || cfg.DefaultMode() != "agent" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestIdleTimeoutRejectsNonPositive(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Stream.IdleTimeoutSeconds = 0
	if cfg.IdleTimeout() != 60*time.Second {
		t.Fatalf("zero must fall back to default, got %v", cfg.IdleTimeout())
	}
	cfg.Stream.IdleTimeoutSeconds = -3
	if cfg.IdleTimeout() != 60*time.Second {
		t.Fatalf("negative must fall back to default, got %v", cfg.IdleTimeout())
	}
}

func TestServerAddressNormalization(t *testing.T) {
	cases := map[string]string{
		"":                      "127.0.0.1:8000",
		"  ":                    "127.0.0.1:8000",
		"localhost:8000":        "localhost:8000",
		"http://localhost:8000": "localhost:8000",
		"https://host:443/":     "host:443",
		"http://host:9000///":   "host:9000",
	}
	for in, want := range cases {
		cfg := Settings{Server: ServerSettings{Address: in}}
		if got := cfg.ServerAddress(); got != want {
			t.Errorf("ServerAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOverlayStorePathByBackend(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultSettings()
	cfg.Storage.Backend = "file"
	path, err := cfg.OverlayStorePath()
	if err != nil {
		t.Fatalf("overlay path: %v", err)
	}
	if filepath.Base(path) != "overlays.json" {
		t.Fatalf("file backend path = %q", path)
	}

	cfg.Storage.Backend = ""
	path, err = cfg.OverlayStorePath()
	if err != nil {
		t.Fatalf("overlay path: %v", err)
	}
	if filepath.Base(path) != "overlays.db" {
		t.Fatalf("default backend path = %q", path)
	}
}
