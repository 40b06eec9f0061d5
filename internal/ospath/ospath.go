// Package ospath provides discovery of OS-dependent paths.
package ospath

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//nolint:gochecknoglobals
var userLogsDir string

// LogsDir returns the directory where per-user logs should be written.
func LogsDir() string {
	return filepath.Join(userLogsDir, "filejanitor")
}

// ResolveUserFriendlyPath replaces ~ in a path with a home directory.
func ResolveUserFriendlyPath(path string, relativeToHome bool) string {
	home, _ := os.UserHomeDir()
	if home != "" && strings.HasPrefix(path, "~") {
		return home + path[1:]
	}

	if filepath.IsAbs(path) {
		return path
	}

	if relativeToHome {
		return filepath.Join(home, path)
	}

	return path
}

// IsAbs determines if a given path is absolute, in particular treating \\host\share as absolute on Windows.
func IsAbs(s string) bool {
	if runtime.GOOS == "windows" && strings.HasPrefix(s, `\\`) {
		parts := strings.Split(s[2:], `\`)

		return len(parts) > 1 && parts[0] != "" && parts[1] != ""
	}

	return filepath.IsAbs(s)
}
