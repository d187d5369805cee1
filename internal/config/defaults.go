package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath returns the default path for the af2conf config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "af2conf", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "af2conf")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "af2conf")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "af2conf")
		}
		return filepath.Join(home, ".config", "af2conf")
	}
}

// DefaultWeightsPath returns the default path for the pretrained weights directory.
func DefaultWeightsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "af2conf", "weights")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "af2conf", "weights")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "af2conf", "weights")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "af2conf", "weights")
		}
		return filepath.Join(home, ".cache", "af2conf", "weights")
	}
}

// DefaultOutputPath returns the default directory for job workdirs.
func DefaultOutputPath() string {
	return "results"
}
