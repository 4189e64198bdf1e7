package config

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrEnvironmentRequired is returned when no deployment environment was given.
var ErrEnvironmentRequired = errors.New("a deployment environment is required (-e)")

// Options are the invocation options parsed from the command line.
// They are built once at startup and never modified afterwards.
type Options struct {
	// Environment is the deployment environment name (e.g. dev, test, prod).
	Environment string

	// Profile names an additional settings profile to load.
	Profile string

	// IgnoreProfiles loads only the default settings, skipping named profiles.
	IgnoreProfiles bool

	// ApplyLocalSettings layers local developer overrides on top of settings.
	ApplyLocalSettings bool

	// Debug enables tracing of every external command.
	Debug bool
}

// Validate returns ErrEnvironmentRequired when Environment is empty.
func (o Options) Validate() error {
	if o.Environment == "" {
		return ErrEnvironmentRequired
	}
	return nil
}

// Settings represents the project settings loaded from the settings
// directory (settings.yaml plus profile and local overlays).
type Settings struct {
	// ProjectNamespace prefixes the environment to form the project name.
	ProjectNamespace string `yaml:"project_namespace"`

	// Project overrides the derived <namespace>-<environment> project name.
	Project string `yaml:"project"`

	// OCBinary is the container-platform CLI to drive.
	OCBinary string `yaml:"oc_binary"`

	// WorkloadKind is the resource kind scaled during database resets
	// (e.g. dc, deployment).
	WorkloadKind string `yaml:"workload_kind"`

	// PodSelectorLabel is the label matched against a pod name to find its pods.
	PodSelectorLabel string `yaml:"pod_selector_label"`

	// PodWait bounds how long to wait for pods to appear or go away.
	PodWait time.Duration `yaml:"pod_wait"`

	// SearchIndexCommand runs inside the API pod to rebuild the search index.
	SearchIndexCommand string `yaml:"search_index_command"`

	// RegisterDidsCommand is run locally with the DID names as arguments.
	RegisterDidsCommand string `yaml:"register_dids_command"`

	Database DatabaseSettings `yaml:"database"`

	// Env holds extra variables exported to every external command.
	Env map[string]EnvVar `yaml:"env"`
}

// DatabaseSettings configures how a database is dropped and recreated.
type DatabaseSettings struct {
	// Commands are SQL statements run with psql inside the database pod, in
	// order. ${VAR} references are left for the pod's shell to expand.
	Commands []string `yaml:"commands"`
}

// EnvVar represents an environment variable value.
// It can be either a literal string or a from_file reference.
type EnvVar struct {
	Value    string // Literal value (before expansion)
	FromFile string // Path to file containing value
}

// UnmarshalYAML implements custom unmarshaling for EnvVar to handle
// both string values and {from_file: path} objects.
func (e *EnvVar) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err == nil {
		e.Value = str
		return nil
	}

	var obj struct {
		FromFile string `yaml:"from_file"`
	}
	if err := value.Decode(&obj); err != nil {
		return err
	}
	e.FromFile = obj.FromFile
	return nil
}

// MarshalYAML writes an EnvVar back in the form it was read.
func (e EnvVar) MarshalYAML() (interface{}, error) {
	if e.FromFile != "" {
		return map[string]string{"from_file": e.FromFile}, nil
	}
	return e.Value, nil
}

// DefaultSettings returns Settings with the values used when no settings
// file overrides them.
func DefaultSettings() Settings {
	return Settings{
		ProjectNamespace:    "devex-von",
		OCBinary:            "oc",
		WorkloadKind:        "dc",
		PodSelectorLabel:    "name",
		PodWait:             2 * time.Minute,
		SearchIndexCommand:  "./scripts/rebuildSearchIndex.sh",
		RegisterDidsCommand: "registerDids.sh",
		Database: DatabaseSettings{
			Commands: []string{
				`DROP DATABASE IF EXISTS "${POSTGRESQL_DATABASE}";`,
				`CREATE DATABASE "${POSTGRESQL_DATABASE}";`,
				`GRANT ALL ON DATABASE "${POSTGRESQL_DATABASE}" TO "${POSTGRESQL_USER}";`,
			},
		},
	}
}

// applyDefaults fills in missing fields with default values.
func applyDefaults(s Settings) Settings {
	defaults := DefaultSettings()

	if s.ProjectNamespace == "" {
		s.ProjectNamespace = defaults.ProjectNamespace
	}
	if s.OCBinary == "" {
		s.OCBinary = defaults.OCBinary
	}
	if s.WorkloadKind == "" {
		s.WorkloadKind = defaults.WorkloadKind
	}
	if s.PodSelectorLabel == "" {
		s.PodSelectorLabel = defaults.PodSelectorLabel
	}
	if s.PodWait == 0 {
		s.PodWait = defaults.PodWait
	}
	if s.SearchIndexCommand == "" {
		s.SearchIndexCommand = defaults.SearchIndexCommand
	}
	if s.RegisterDidsCommand == "" {
		s.RegisterDidsCommand = defaults.RegisterDidsCommand
	}
	if len(s.Database.Commands) == 0 {
		s.Database.Commands = defaults.Database.Commands
	}

	return s
}

// ProjectName returns the project (namespace) operations run against in env.
func (s Settings) ProjectName(env string) string {
	if s.Project != "" {
		return s.Project
	}
	return s.ProjectNamespace + "-" + env
}
