// Package cluster defines the capabilities manage needs from the container
// platform. Operations depend only on Adapter, so a fake can stand in for the
// real platform in tests.
package cluster

import (
	"context"
	"io"
)

// Adapter is what every container-platform implementation provides.
// Every method blocks until the underlying work has finished or failed.
//
//	| Method                  | oc                                           |
//	|-------------------------|----------------------------------------------|
//	| SwitchProject           | oc project <project>                         |
//	| RunInPod                | oc exec [-it] <pod> -- bash -c <command>     |
//	| DropAndRecreateDatabase | scale API down, psql in DB pod, scale API up |
//	| RegisterDIDs            | run the configured registration command      |
type Adapter interface {
	// SwitchProject makes the configured environment's project current.
	SwitchProject(ctx context.Context) error

	// RunInPod runs command inside a running pod of the named workload.
	// When interactive is true the operator's terminal is attached.
	RunInPod(ctx context.Context, pod, command string, interactive bool) error

	// DropAndRecreateDatabase drops and recreates the database served by
	// dbPod. The API in apiPod applies migrations when it starts back up.
	DropAndRecreateDatabase(ctx context.Context, apiPod, dbPod string) error

	// RegisterDIDs registers every named DID in a single call.
	RegisterDIDs(ctx context.Context, names []string) error
}

// Streams is the operator's terminal.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}
