// Package paths resolves the workspace root, config file, and log file
// locations used by mfe.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (MFE_CONFIG, MFE_LOG_PATH) take highest priority
//  2. MFE_ROOT sets the workspace root (config files are looked up there)
//  3. Default behavior (current directory, ~/.mfe) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvRoot is the workspace root override. The primary and secondary
	// projects and the output tree are resolved relative to it.
	EnvRoot = "MFE_ROOT"

	// EnvConfigPath overrides the config file path directly.
	EnvConfigPath = "MFE_CONFIG"

	// EnvLogPath overrides the diagnostic log file path.
	EnvLogPath = "MFE_LOG_PATH"
)

// ConfigNames are the config file names looked up in the root, in order.
var ConfigNames = []string{"mfe.toml", "mfe.yaml", "mfe.yml"}

// Root returns the absolute workspace root.
// Honors MFE_ROOT, otherwise the current working directory.
func Root() (string, error) {
	if dir := os.Getenv(EnvRoot); dir != "" {
		return filepath.Abs(dir)
	}
	return os.Getwd()
}

// ConfigPath returns the config file to load for root and whether it was
// explicitly requested. An explicit path (MFE_CONFIG) must exist; a default
// path may be missing, in which case built-in defaults apply.
func ConfigPath(root string) (path string, explicit bool) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, true
	}
	for _, name := range ConfigNames {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, false
		}
	}
	return filepath.Join(root, ConfigNames[0]), false
}

// StateDir returns the mfe state directory (~/.mfe).
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mfe"), nil
}

// LogPath returns the diagnostic log file path.
// Precedence: MFE_LOG_PATH > ~/.mfe/mfe.log > /tmp/mfe.log
func LogPath() string {
	if path := os.Getenv(EnvLogPath); path != "" {
		return path
	}
	dir, err := StateDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mfe.log")
	}
	return filepath.Join(dir, "mfe.log")
}
