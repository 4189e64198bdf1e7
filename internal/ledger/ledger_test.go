package ledger

import (
	"errors"
	"testing"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		env     string
		want    string
		wantErr bool
	}{
		{"dev", "http://dev.bcovrin.vonx.io", false},
		{"test", "http://test.bcovrin.vonx.io", false},
		{"prod", "http://prod.bcovrin.vonx.io", false},
		{"staging", "", true},
		{"", "", true},
		{"DEV", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			got, err := Address(tt.env)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEnvironment) {
					t.Fatalf("Address(%q) error = %v, want ErrUnknownEnvironment", tt.env, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Address(%q) unexpected error: %v", tt.env, err)
			}
			if got != tt.want {
				t.Errorf("Address(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}
