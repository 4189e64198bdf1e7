package oc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Quidge/orgbook-manage/internal/log"
)

var (
	// ErrPodNotRunning is returned when no running pod matches a workload
	// within the configured wait.
	ErrPodNotRunning = errors.New("no running pod found")

	// ErrPodsStillRunning is returned when pods of a scaled-down workload
	// did not stop within the configured wait.
	ErrPodsStillRunning = errors.New("pods still running")
)

// exponentialBackOff retries for at most maxWait. A zero maxWait means a
// single attempt.
func exponentialBackOff(maxWait time.Duration) backoff.BackOff {
	if maxWait <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	return b
}

// runningPods lists the running pods of the named workload.
func (a *Adapter) runningPods(ctx context.Context, name string) ([]string, error) {
	out, err := a.runner.Output(ctx, a.oc,
		"-n", a.project,
		"get", "pods",
		"-l", a.settings.PodSelectorLabel+"="+name,
		"--field-selector=status.phase=Running",
		"-o", "jsonpath={.items[*].metadata.name}",
	)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// runningPod returns the first running pod of the named workload, waiting
// while none is running yet. Failing to query the platform is not retried.
func (a *Adapter) runningPod(ctx context.Context, name string) (string, error) {
	var pod string
	err := a.retry(ctx, "Waiting for pod to start", name, func() error {
		pods, err := a.runningPods(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(pods) == 0 {
			return fmt.Errorf("%w for %s in %s", ErrPodNotRunning, name, a.project)
		}
		pod = pods[0]
		return nil
	})
	if err != nil {
		return "", err
	}
	return pod, nil
}

// waitForNoPods blocks until no pod of the named workload is running.
func (a *Adapter) waitForNoPods(ctx context.Context, name string) error {
	return a.retry(ctx, "Waiting for pods to stop", name, func() error {
		pods, err := a.runningPods(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(pods) > 0 {
			return fmt.Errorf("%w for %s: %s", ErrPodsStillRunning, name, strings.Join(pods, ", "))
		}
		return nil
	})
}

func (a *Adapter) retry(ctx context.Context, msg, name string, op backoff.Operation) error {
	return backoff.RetryNotify(op,
		backoff.WithContext(a.newBackOff(a.settings.PodWait), ctx),
		func(err error, d time.Duration) {
			log.Debug(a.logger, msg, "workload", name, "retry_after", d, "error", err)
		},
	)
}
