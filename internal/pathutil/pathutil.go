// Package pathutil resolves the paths manage reads settings and tools from.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the path unchanged if it doesn't start with ~.
func ExpandTilde(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" {
		return os.UserHomeDir()
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	return path, nil
}

// ResolveRelative resolves path against base unless it is already absolute.
func ResolveRelative(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// ExistsAndIsFile returns true if the path exists and is a regular file.
func ExistsAndIsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FindUpward walks from startDir towards the filesystem root and returns the
// first directory containing a file called name, or "" if none does.
func FindUpward(startDir, name string) string {
	dir := filepath.Clean(startDir)
	for {
		if ExistsAndIsFile(filepath.Join(dir, name)) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// FindInPathList returns the first directory of a PATH-style list that
// contains a file called name, or "" if none does.
func FindInPathList(pathList, name string) string {
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		if ExistsAndIsFile(filepath.Join(dir, name)) {
			return dir
		}
	}
	return ""
}
