package cluster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Quidge/orgbook-manage/internal/config"
	"github.com/Quidge/orgbook-manage/internal/log"
)

// DefaultType is the adapter used unless another is requested.
const DefaultType = "oc"

// ErrUnknownAdapter is returned by Get for an unregistered adapter type.
var ErrUnknownAdapter = errors.New("unknown cluster adapter type")

// AdapterConfig contains everything needed to initialize an adapter.
type AdapterConfig struct {
	// Type is the adapter type (e.g., "oc").
	Type string

	// Config is the invocation configuration.
	Config *config.Config

	// Streams is attached to interactive commands.
	Streams Streams

	Logger log.Logger
}

// Factory creates a new adapter instance.
type Factory func(cfg AdapterConfig) (Adapter, error)

var registry = make(map[string]Factory)

// Register registers an adapter factory for the given type.
// This should be called during package init.
func Register(adapterType string, factory Factory) {
	registry[adapterType] = factory
}

// Get returns a new adapter for the given configuration. An empty Type means
// DefaultType. Unknown types and factory failures are both configuration
// errors: nothing has touched the platform yet when Get fails.
func Get(cfg AdapterConfig) (Adapter, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultType
	}
	factory, ok := registry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, cfg.Type)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return factory(cfg)
}

// RegisteredTypes returns all registered adapter types, sorted.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
