package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".ragent"

// DataDir returns the base data directory for the agent client.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// SettingsPath returns the path to the TOML settings file.
func SettingsPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "settings.toml"), nil
}

// OverlayPath returns the path to the JSON overlay file (file backend).
func OverlayPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "overlays.json"), nil
}

// OverlayDBPath returns the path to the overlay database (bbolt backend).
func OverlayDBPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "overlays.db"), nil
}
