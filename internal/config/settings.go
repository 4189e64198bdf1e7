package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Quidge/orgbook-manage/internal/pathutil"
)

// SettingsFilename is the name of the base settings file.
const SettingsFilename = "settings.yaml"

// SettingsFiles returns the settings files to layer, in the order they are
// applied, for the given options. Later files override earlier ones.
//
//	settings.yaml
//	settings.<profile>.yaml        unless IgnoreProfiles
//	settings.local.yaml            when ApplyLocalSettings
//	settings.<profile>.local.yaml  when ApplyLocalSettings and not IgnoreProfiles
func SettingsFiles(dir string, opts Options) []string {
	useProfile := opts.Profile != "" && !opts.IgnoreProfiles

	files := []string{SettingsFilename}
	if useProfile {
		files = append(files, fmt.Sprintf("settings.%s.yaml", opts.Profile))
	}
	if opts.ApplyLocalSettings {
		files = append(files, "settings.local.yaml")
		if useProfile {
			files = append(files, fmt.Sprintf("settings.%s.local.yaml", opts.Profile))
		}
	}

	for i, f := range files {
		files[i] = filepath.Join(dir, f)
	}
	return files
}

// SettingsDir locates the directory holding the settings files: $OCTOOLSBIN
// when set, otherwise the nearest ancestor of workDir containing
// settings.yaml. Returns "" if neither is available.
func SettingsDir(env Environment, workDir string) (string, error) {
	if env.OCToolsBin != "" {
		dir, err := pathutil.ExpandTilde(env.OCToolsBin)
		if err != nil {
			return "", fmt.Errorf("OCTOOLSBIN: %w", err)
		}
		return dir, nil
	}
	if workDir == "" {
		return "", nil
	}
	return pathutil.FindUpward(workDir, SettingsFilename), nil
}

// LoadSettings layers every settings file that exists in dir for the given
// options. Missing files are skipped; a file that exists but is not valid YAML
// is an error. An empty dir yields the defaults.
func LoadSettings(dir string, opts Options) (Settings, error) {
	var s Settings
	if dir == "" {
		return applyDefaults(s), nil
	}

	for _, path := range SettingsFiles(dir, opts) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		}

		// Decoding into the same value overlays only the keys this file sets.
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	return applyDefaults(s), nil
}

// WriteSettings writes settings to path as YAML.
func WriteSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
