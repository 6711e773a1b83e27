package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	viewsFile   = "views.json"
	journalFile = "journal.db"
	sessionFile = "session.json"
)

func ConfigDir() (string, error) {
	if dir := os.Getenv("DESK_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "umrah-desk"), nil
}

func ViewsPath() (string, error) {
	return configFile(viewsFile)
}

func JournalPath() (string, error) {
	return configFile(journalFile)
}

func SessionPath() (string, error) {
	return configFile(sessionFile)
}

func configFile(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func ensureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}
