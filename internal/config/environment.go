package config

import (
	"fmt"

	goenv "github.com/Netflix/go-env"
)

// Environment holds the process environment variables manage reads.
type Environment struct {
	// OCToolsBin points at the directory holding the settings files.
	OCToolsBin string `env:"OCTOOLSBIN"`

	// LogLevel is the structured log level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL,default=warn"`

	// StateDB overrides the run history database path.
	StateDB string `env:"MANAGE_STATE_DB"`

	// Path is the executable search path.
	Path string `env:"PATH"`

	// Extras holds every variable from the environ, including the above.
	Extras goenv.EnvSet
}

// ReadEnvironment parses environ (in os.Environ form) into an Environment.
func ReadEnvironment(environ []string) (Environment, error) {
	es, err := goenv.EnvironToEnvSet(environ)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Unmarshal removes the keys it reads from the set it is given.
	parsed := make(goenv.EnvSet, len(es))
	for k, v := range es {
		parsed[k] = v
	}

	var env Environment
	if err := goenv.Unmarshal(parsed, &env); err != nil {
		return Environment{}, fmt.Errorf("failed to read environment variables: %w", err)
	}
	env.Extras = es
	return env, nil
}

// Lookup returns the value of an environment variable from the parsed environ.
func (e Environment) Lookup(key string) (string, bool) {
	v, ok := e.Extras[key]
	return v, ok
}

// Exports are the variables exported to every external command so that
// external tooling sees the same invocation options.
type Exports struct {
	DeploymentEnvName  string `env:"DEPLOYMENT_ENV_NAME"`
	Profile            string `env:"PROFILE"`
	IgnoreProfiles     bool   `env:"IGNORE_PROFILES"`
	ApplyLocalSettings bool   `env:"APPLY_LOCAL_SETTINGS"`
	Debug              bool   `env:"DEBUG"`
	OCToolsBin         string `env:"OCTOOLSBIN"`
}

// EnvSet marshals the exports into a go-env EnvSet.
func (x Exports) EnvSet() (goenv.EnvSet, error) {
	es, err := goenv.Marshal(&x)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exported variables: %w", err)
	}
	return es, nil
}
