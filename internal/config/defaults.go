package config

import (
	"os"
	"path/filepath"

	"clipflow/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ModelDir:  filepath.Join(homeDir, ".clipflow", "models"),
		BinDir:    filepath.Join(homeDir, ".clipflow", "bin"),
		TempDir:   filepath.Join(os.TempDir(), "clipflow"),
		OutputDir: filepath.Join(homeDir, "Documents", "Transcripts"),
		Model:     "base",
		Language:  "auto",
	}
}

// DefaultPath returns the canonical settings file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".clipflow", "settings.toml")
}
