// Package ledger knows where each deployment environment's ledger lives.
package ledger

import (
	"errors"
	"fmt"
)

// ErrUnknownEnvironment is returned for environments without a ledger.
var ErrUnknownEnvironment = errors.New("no ledger address for environment")

var addresses = map[string]string{
	"dev":  "http://dev.bcovrin.vonx.io",
	"test": "http://test.bcovrin.vonx.io",
	"prod": "http://prod.bcovrin.vonx.io",
}

// Address returns the ledger address for env. The lookup is static; no
// network access happens.
func Address(env string) (string, error) {
	addr, ok := addresses[env]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}
	return addr, nil
}
