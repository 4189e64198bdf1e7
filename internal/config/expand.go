package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Quidge/orgbook-manage/internal/pathutil"
)

// envVarPattern matches ${VAR} or ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns in s using lookup.
// Unset variables expand to an empty string unless a ${VAR:-default} is given.
func ExpandEnvVars(s string, lookup func(string) (string, bool)) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]

		if idx := strings.Index(varName, ":-"); idx != -1 {
			if val, ok := lookup(varName[:idx]); ok {
				return val
			}
			return varName[idx+2:]
		}

		val, _ := lookup(varName)
		return val
	})
}

// ReadFromFile reads the contents of a file and returns it as a string.
// The path is ~-expanded before reading and trailing newlines are trimmed.
func ReadFromFile(path string) (string, error) {
	expandedPath, err := pathutil.ExpandTilde(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}

	// Trim trailing newlines (common in secret files)
	return strings.TrimRight(string(data), "\n\r"), nil
}

// ExpandEnvMap resolves a map of EnvVar values, expanding ${VAR} references
// and reading from_file references. Relative from_file paths are resolved
// against baseDir.
func ExpandEnvMap(envVars map[string]EnvVar, baseDir string, lookup func(string) (string, bool)) (map[string]string, error) {
	result := make(map[string]string, len(envVars))

	for key, envVar := range envVars {
		if envVar.FromFile == "" {
			result[key] = ExpandEnvVars(envVar.Value, lookup)
			continue
		}

		path := ExpandEnvVars(envVar.FromFile, lookup)
		if baseDir != "" && !strings.HasPrefix(path, "~") {
			path = pathutil.ResolveRelative(baseDir, path)
		}
		value, err := ReadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand env var %s: %w", key, err)
		}
		result[key] = value
	}

	return result, nil
}
