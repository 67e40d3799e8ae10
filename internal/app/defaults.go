package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the filesystem locations used when no config overrides them.
type Paths struct {
	ConfigPath string
	BaseDir    string
}

// LogDir is where NewConfig puts the log file.
func (p Paths) LogDir() string { return filepath.Join(p.BaseDir, "log") }

// RestoreDir is the default target directory for restored snapshots.
func (p Paths) RestoreDir() string { return filepath.Join(p.BaseDir, "restore") }

// GetDefaults resolves the config file and data directory.
//
// Lookup order for the config file: EVENTMEET_CONFIG_PATH, then
// $XDG_CONFIG_HOME/eventmeet.toml, then ~/.config/eventmeet.toml.
// For the data directory: EVENTMEET_HOME, then $XDG_DATA_HOME/eventmeet,
// then ~/.local/share/eventmeet.
func GetDefaults() (Paths, error) {
	configPath, err := resolve("EVENTMEET_CONFIG_PATH", "XDG_CONFIG_HOME", "eventmeet.toml", ".config")
	if err != nil {
		return Paths{}, err
	}
	baseDir, err := resolve("EVENTMEET_HOME", "XDG_DATA_HOME", "eventmeet", ".local", "share")
	if err != nil {
		return Paths{}, err
	}
	return Paths{ConfigPath: configPath, BaseDir: baseDir}, nil
}

func resolve(override, xdg, name string, homeFallback ...string) (string, error) {
	if path := os.Getenv(override); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdg); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	parts := append([]string{homeDir}, homeFallback...)
	return filepath.Join(append(parts, name)...), nil
}
