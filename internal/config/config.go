// Package config builds the immutable configuration an invocation runs with
// from the command-line options, the process environment and the YAML
// settings layered in the settings directory.
package config

import (
	"fmt"
	"sort"
)

// Config is everything an operation needs to know about how it was invoked.
// It is built once by Load and passed explicitly to every handler.
type Config struct {
	Options     Options
	Environment Environment
	Settings    Settings

	// SettingsDir is where the settings were read from; empty when only
	// defaults apply.
	SettingsDir string

	// Env is Settings.Env after expansion.
	Env map[string]string
}

// Load builds a Config from the parsed options and environment. workDir is
// where the settings directory search starts when $OCTOOLSBIN is unset.
func Load(opts Options, env Environment, workDir string) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dir, err := SettingsDir(env, workDir)
	if err != nil {
		return nil, err
	}

	settings, err := LoadSettings(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := settings.Validate(opts.Environment); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	expanded, err := ExpandEnvMap(settings.Env, dir, env.Lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to expand settings env: %w", err)
	}

	return &Config{
		Options:     opts,
		Environment: env,
		Settings:    settings,
		SettingsDir: dir,
		Env:         expanded,
	}, nil
}

// Project returns the project operations run against.
func (c *Config) Project() string {
	return c.Settings.ProjectName(c.Options.Environment)
}

// Exports returns the variables exported to external commands.
func (c *Config) Exports() Exports {
	return Exports{
		DeploymentEnvName:  c.Options.Environment,
		Profile:            c.Options.Profile,
		IgnoreProfiles:     c.Options.IgnoreProfiles,
		ApplyLocalSettings: c.Options.ApplyLocalSettings,
		Debug:              c.Options.Debug,
		OCToolsBin:         c.SettingsDir,
	}
}

// CommandEnv returns the environment external commands run with: the process
// environment, then the expanded settings env, then the exports. Later
// entries win when keys repeat.
func (c *Config) CommandEnv() ([]string, error) {
	exports, err := c.Exports().EnvSet()
	if err != nil {
		return nil, err
	}

	env := make([]string, 0, len(c.Environment.Extras)+len(c.Env)+len(exports))
	env = append(env, sortedEnviron(c.Environment.Extras)...)
	env = append(env, sortedEnviron(c.Env)...)
	env = append(env, sortedEnviron(exports)...)
	return env, nil
}

func sortedEnviron(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+m[k])
	}
	return env
}
