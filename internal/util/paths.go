package util

import (
	"os"
	"path/filepath"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// GoldenfileConfigPath returns the user-level goldenfile configuration
// directory. GOLDENFILE_HOME overrides the default of ~/.config/goldenfile.
func GoldenfileConfigPath() string {
	if home := os.Getenv("GOLDENFILE_HOME"); home != "" {
		return home
	}
	return filepath.Join(HomeDir(), ".config", "goldenfile")
}

// GoldenfileSnapshotsPath returns the default directory for golden tree
// snapshots taken before updates.
func GoldenfileSnapshotsPath() string {
	return filepath.Join(GoldenfileConfigPath(), "snapshots")
}

// ExpandPath expands a leading ~ to the home directory and resolves relative
// paths against baseDir. An empty path stays empty.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
