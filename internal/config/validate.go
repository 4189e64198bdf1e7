package config

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"
)

var (
	// projectNamePattern matches a DNS-1123 label, the form project names take.
	projectNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

	envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate reports every problem with the settings for environment env.
// The returned error is a *multierror.Error when non-nil.
func (s Settings) Validate(env string) error {
	var result *multierror.Error

	project := s.ProjectName(env)
	if len(project) > 63 || !projectNamePattern.MatchString(project) {
		result = multierror.Append(result, fmt.Errorf("project name %q is not a valid project name", project))
	}
	if s.PodWait < 0 {
		result = multierror.Append(result, fmt.Errorf("pod_wait must not be negative, got %s", s.PodWait))
	}
	if s.OCBinary == "" {
		result = multierror.Append(result, fmt.Errorf("oc_binary must be set"))
	}
	if s.SearchIndexCommand == "" {
		result = multierror.Append(result, fmt.Errorf("search_index_command must be set"))
	}
	if s.RegisterDidsCommand == "" {
		result = multierror.Append(result, fmt.Errorf("register_dids_command must be set"))
	}
	for i, c := range s.Database.Commands {
		if c == "" {
			result = multierror.Append(result, fmt.Errorf("database.commands[%d] is empty", i))
		}
	}
	for key := range s.Env {
		if !envNamePattern.MatchString(key) {
			result = multierror.Append(result, fmt.Errorf("env key %q is not a valid variable name", key))
		}
	}

	return result.ErrorOrNil()
}
