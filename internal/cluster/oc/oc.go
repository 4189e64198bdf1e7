// Package oc implements cluster.Adapter by shelling out to the OpenShift CLI.
//
// Every command is namespaced explicitly with -n <project>, so operations do
// not depend on which project the operator's session last switched to.
// Workload names given by the operator (e.g. "django") are resolved to a
// running pod through the pod selector label before anything is executed.
package oc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Quidge/orgbook-manage/internal/cluster"
	"github.com/Quidge/orgbook-manage/internal/config"
	"github.com/Quidge/orgbook-manage/internal/ledger"
	"github.com/Quidge/orgbook-manage/internal/log"
)

// AdapterType is the registry identifier for this adapter.
const AdapterType = "oc"

// ErrCLINotFound is returned when the oc binary cannot be found.
var ErrCLINotFound = errors.New("container-platform CLI not found")

// installHint tells the operator how to fix a missing CLI.
const installHint = "install the OpenShift CLI and make sure it is on your PATH: " +
	"https://docs.openshift.com/container-platform/latest/cli_reference/openshift_cli/getting-started-cli.html"

// Adapter implements cluster.Adapter with the oc CLI.
type Adapter struct {
	oc       string
	project  string
	env      string
	settings config.Settings
	toolsDir string
	pathList string
	streams  cluster.Streams
	runner   Runner
	logger   log.Logger

	// newBackOff returns the policy used while waiting on pods.
	newBackOff func(maxWait time.Duration) backoff.BackOff
}

var _ cluster.Adapter = (*Adapter)(nil)

func init() {
	cluster.Register(AdapterType, New)
}

// New creates an oc adapter. It fails if the configured oc binary cannot be
// found, before any command has run.
func New(cfg cluster.AdapterConfig) (cluster.Adapter, error) {
	if cfg.Config == nil {
		return nil, errors.New("oc adapter requires a configuration")
	}

	ocPath, err := exec.LookPath(cfg.Config.Settings.OCBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrCLINotFound, cfg.Config.Settings.OCBinary, installHint)
	}

	env, err := commandEnv(cfg.Config)
	if err != nil {
		return nil, err
	}

	return newAdapter(cfg, ocPath, &ExecRunner{Env: env, Logger: cfg.Logger}), nil
}

// commandEnv is the environment external commands run with. It adds
// LEDGER_URL when the environment has a known ledger.
func commandEnv(cfg *config.Config) ([]string, error) {
	env, err := cfg.CommandEnv()
	if err != nil {
		return nil, err
	}
	if addr, err := ledger.Address(cfg.Options.Environment); err == nil {
		env = append(env, "LEDGER_URL="+addr)
	}
	return env, nil
}

func newAdapter(cfg cluster.AdapterConfig, ocPath string, runner Runner) *Adapter {
	return &Adapter{
		oc:         ocPath,
		project:    cfg.Config.Project(),
		env:        cfg.Config.Options.Environment,
		settings:   cfg.Config.Settings,
		toolsDir:   cfg.Config.SettingsDir,
		pathList:   cfg.Config.Environment.Path,
		streams:    cfg.Streams,
		runner:     runner,
		logger:     cfg.Logger,
		newBackOff: exponentialBackOff,
	}
}

// SwitchProject runs `oc project <project>`.
func (a *Adapter) SwitchProject(ctx context.Context) error {
	log.Debug(a.logger, "Switching project", "project", a.project)
	if err := a.runner.Run(ctx, a.outputOnly(), a.oc, "project", a.project); err != nil {
		return fmt.Errorf("failed to switch to project %s: %w", a.project, err)
	}
	return nil
}

// RunInPod resolves pod to a running pod and runs command in it with bash.
func (a *Adapter) RunInPod(ctx context.Context, pod, command string, interactive bool) error {
	podName, err := a.runningPod(ctx, pod)
	if err != nil {
		return err
	}

	args := []string{"-n", a.project, "exec"}
	streams := a.outputOnly()
	if interactive {
		args = append(args, "-it")
		streams = a.streams
	}
	args = append(args, podName, "--", "bash", "-c", command)

	log.Debug(a.logger, "Running command in pod", "pod", podName, "interactive", interactive)
	if err := a.runner.Run(ctx, streams, a.oc, args...); err != nil {
		return fmt.Errorf("command failed in pod %s: %w", podName, err)
	}
	return nil
}

// outputOnly returns the operator streams without stdin.
func (a *Adapter) outputOnly() cluster.Streams {
	return cluster.Streams{Out: a.streams.Out, Err: a.streams.Err}
}
