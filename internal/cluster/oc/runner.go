package oc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Quidge/orgbook-manage/internal/cluster"
	"github.com/Quidge/orgbook-manage/internal/log"
)

// Runner executes external commands. The adapter only talks to the outside
// world through a Runner so tests can record and script the calls.
type Runner interface {
	// Output runs name with args and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// Run runs name with args attached to streams. A nil streams.In leaves
	// stdin unattached.
	Run(ctx context.Context, streams cluster.Streams, name string, args ...string) error
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// Env is the complete environment commands run with.
	Env []string

	Logger log.Logger
}

var _ Runner = (*ExecRunner)(nil)

// Output runs the command and captures stdout. On failure the error includes
// whatever the command wrote to stderr.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.trace(name, args)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.Env
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// Run runs the command attached to streams.
func (r *ExecRunner) Run(ctx context.Context, streams cluster.Streams, name string, args ...string) error {
	r.trace(name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.Env
	if streams.In != nil {
		cmd.Stdin = streams.In
	}
	cmd.Stdout = streams.Out
	cmd.Stderr = streams.Err

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) trace(name string, args []string) {
	if r.Logger == nil {
		return
	}
	log.Debug(r.Logger, "Running command", "cmd", name, "args", strings.Join(args, " "))
}
