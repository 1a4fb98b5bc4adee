// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".sndeals"
	DefaultDataDirName   = ".sndeals-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SNDEALS_CONFIG_DIR"
	EnvDataDir   = "SNDEALS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/sndeals (fallback ~/.config/sndeals)
// macOS:   ~/Library/Application Support/sndeals
// Windows: %APPDATA%/sndeals
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "sndeals"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "sndeals"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "sndeals"), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/sndeals (fallback ~/.local/share/sndeals)
// macOS:   ~/Library/Application Support/sndeals
// Windows: %APPDATA%/sndeals
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "sndeals"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "sndeals"), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "sndeals"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > SNDEALS_CONFIG_DIR env > DefaultConfigDir().
//
// If flag is non-empty it wins. Otherwise the SNDEALS_CONFIG_DIR environment
// variable is checked. If neither is set, the platform default is returned.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > SNDEALS_DATA_DIR env > DefaultDataDir().
//
// With no override the data directory is $(CWD)/.sndeals-db rather than
// the platform default.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// File names inside the resolved directories.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// ConfigFile returns the path of config.yaml inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// EnvFiles returns the .env files to load, in precedence order: the
// working directory first, then configDir. Files that do not exist are
// omitted.
func EnvFiles(configDir string) []string {
	var out []string
	for _, p := range []string{EnvFileName, filepath.Join(configDir, EnvFileName)} {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
