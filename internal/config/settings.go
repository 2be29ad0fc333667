package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultServerAddress      = "127.0.0.1:8000"
	defaultIdleTimeoutSeconds = 60
	defaultMode               = "agent"
)

type Settings struct {
	Server  ServerSettings  `toml:"server"`
	Stream  StreamSettings  `toml:"stream"`
	Chat    ChatSettings    `toml:"chat"`
	Logging LoggingSettings `toml:"logging"`
	Storage StorageSettings `toml:"storage"`
}

type ServerSettings struct {
	Address string `toml:"address"`
}

type StreamSettings struct {
	// Seconds without an event before a running stream is cancelled the
	// same way an explicit stop would. The clock runs between events,
	// not from send to first token.
	IdleTimeoutSeconds int `toml:"idle_timeout_seconds"`
}

type ChatSettings struct {
	DefaultMode string `toml:"default_mode"`
}

type LoggingSettings struct {
	Level string `toml:"level"`
}

type StorageSettings struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Address: defaultServerAddress},
		Stream: StreamSettings{IdleTimeoutSeconds: defaultIdleTimeoutSeconds},
		Chat:   ChatSettings{DefaultMode: defaultMode},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	return loadSettingsFromPath(path)
}

func loadSettingsFromPath(path string) (Settings, error) {
	cfg := DefaultSettings()
	if err := readTOML(path, &cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func (s Settings) ServerAddress() string {
	addr := strings.TrimSpace(s.Server.Address)
	if addr == "" {
		return defaultServerAddress
	}
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultServerAddress
	}
	return addr
}

func (s Settings) ServerBaseURL() string {
	return "http://" + s.ServerAddress()
}

func (s Settings) IdleTimeout() time.Duration {
	seconds := s.Stream.IdleTimeoutSeconds
	if seconds <= 0 {
		seconds = defaultIdleTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (s Settings) DefaultMode() string {
	mode := strings.TrimSpace(s.Chat.DefaultMode)
	if mode == "" {
		return defaultMode
	}
	return mode
}

func (s Settings) LogLevel() string {
	level := strings.TrimSpace(s.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (s Settings) StorageBackend() string {
	return strings.TrimSpace(s.Storage.Backend)
}

// OverlayStorePath resolves where overlays live for the configured
// backend, honoring an explicit storage.path override.
func (s Settings) OverlayStorePath() (string, error) {
	if path := strings.TrimSpace(s.Storage.Path); path != "" {
		return path, nil
	}
	if strings.EqualFold(s.StorageBackend(), "file") {
		return OverlayPath()
	}
	return OverlayDBPath()
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
