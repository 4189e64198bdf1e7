package manage

import (
	"errors"
	"fmt"
)

// ErrMissingParameter is returned when an operation is missing a required
// parameter. It is a usage error.
var ErrMissingParameter = errors.New("missing required parameter")

// PodNames are the workloads an operation acts on.
type PodNames struct {
	API       string
	DB        string
	WalletAPI string
	WalletDB  string
}

// DefaultPodNames returns the workload names of a standard deployment.
func DefaultPodNames() PodNames {
	return PodNames{
		API:       "django",
		DB:        "postgresql",
		WalletAPI: "wallet",
		WalletDB:  "wallet-db",
	}
}

// PodNamesFromArgs overrides the defaults positionally, in the order
// API, DB, WalletAPI, WalletDB. Extra arguments are ignored.
func PodNamesFromArgs(args []string) PodNames {
	pods := DefaultPodNames()
	fields := []*string{&pods.API, &pods.DB, &pods.WalletAPI, &pods.WalletDB}
	for i, arg := range args {
		if i >= len(fields) {
			break
		}
		*fields[i] = arg
	}
	return pods
}

// DidNames returns the DIDs registered for the application, in order.
func DidNames() []string {
	return []string{"the_org_book", "the_org_book_on"}
}

func requireParams(params ...string) error {
	for i := 0; i+1 < len(params); i += 2 {
		if params[i+1] == "" {
			return fmt.Errorf("%w: %s", ErrMissingParameter, params[i])
		}
	}
	return nil
}
