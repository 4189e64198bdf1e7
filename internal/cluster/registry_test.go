package cluster

import (
	"context"
	"errors"
	"testing"
)

// resetRegistry clears the registry for isolated tests.
func resetRegistry() {
	registry = make(map[string]Factory)
}

type nopAdapter struct{}

func (nopAdapter) SwitchProject(context.Context) error { return nil }
func (nopAdapter) RunInPod(context.Context, string, string, bool) error { return nil }
func (nopAdapter) DropAndRecreateDatabase(context.Context, string, string) error { return nil }
func (nopAdapter) RegisterDIDs(context.Context, []string) error { return nil }

func TestRegisterAndGet(t *testing.T) {
	resetRegistry()

	called := false
	Register("test", func(cfg AdapterConfig) (Adapter, error) {
		called = true
		if cfg.Logger == nil {
			t.Error("expected a non-nil logger")
		}
		return nopAdapter{}, nil
	})

	a, err := Get(AdapterConfig{Type: "test"})
	if err != nil {
		t.Fatalf("Get returned unexpected error: %v", err)
	}
	if !called {
		t.Error("factory was not called")
	}
	if a == nil {
		t.Error("expected an adapter")
	}
}

func TestGetDefaultsToOC(t *testing.T) {
	resetRegistry()

	var gotType string
	Register(DefaultType, func(cfg AdapterConfig) (Adapter, error) {
		gotType = cfg.Type
		return nopAdapter{}, nil
	})

	if _, err := Get(AdapterConfig{}); err != nil {
		t.Fatalf("Get returned unexpected error: %v", err)
	}
	if gotType != DefaultType {
		t.Errorf("factory saw type %q, want %q", gotType, DefaultType)
	}
}

func TestGetUnknownAdapterType(t *testing.T) {
	resetRegistry()

	_, err := Get(AdapterConfig{Type: "nonexistent"})
	if !errors.Is(err, ErrUnknownAdapter) {
		t.Fatalf("expected ErrUnknownAdapter, got %v", err)
	}

	expected := "unknown cluster adapter type: nonexistent"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestGetReturnsFactoryError(t *testing.T) {
	resetRegistry()

	expectedErr := errors.New("oc not found")
	Register("failing", func(cfg AdapterConfig) (Adapter, error) {
		return nil, expectedErr
	})

	_, err := Get(AdapterConfig{Type: "failing"})
	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestRegisteredTypes(t *testing.T) {
	resetRegistry()

	Register("beta", func(cfg AdapterConfig) (Adapter, error) { return nil, nil })
	Register("alpha", func(cfg AdapterConfig) (Adapter, error) { return nil, nil })

	types := RegisteredTypes()
	if len(types) != 2 || types[0] != "alpha" || types[1] != "beta" {
		t.Errorf("RegisteredTypes() = %v, want [alpha beta]", types)
	}
}
