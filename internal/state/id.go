package state

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewRunID returns a new run ID. IDs sort in creation order.
func NewRunID() string {
	return ulid.Make().String()
}

// NormalizeID returns id in the canonical upper-case form.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
