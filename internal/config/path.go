// Package config loads leadflow settings from viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the config directory and the default database file.
const AppName = "leadflow"

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// Dir returns $HOME/.config/leadflow, or ./.leadflow when there is no home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultDatabasePath is where the SQLite database lives unless configured.
func DefaultDatabasePath() string {
	return filepath.Join(Dir(), AppName+".db")
}
