package filesystem

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "matrixsh"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ConfigDir is $XDG_CONFIG_HOME/matrixsh, ~/.config/matrixsh by default and
// %APPDATA%\matrixsh on Windows.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
	}
	return filepath.Join(UserHomeDir(), ".config", appName)
}

// DataDir is $XDG_DATA_HOME/matrixsh, ~/.local/share/matrixsh by default and
// %APPDATA%\matrixsh on Windows.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
	}
	return filepath.Join(UserHomeDir(), ".local", "share", appName)
}

// ExpandPath resolves a leading ~/ against the home directory.
func ExpandPath(path string) string {
	if path == "~" {
		return UserHomeDir()
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(UserHomeDir(), path[2:])
	}
	return path
}
