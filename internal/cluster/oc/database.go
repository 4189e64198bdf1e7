package oc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Quidge/orgbook-manage/internal/log"
)

// DropAndRecreateDatabase scales the API workload down so nothing holds a
// connection, runs the configured statements with psql in the database pod,
// then scales the API back to its previous replica count. The API applies
// migrations as it starts. A failure stops immediately; nothing is rolled back.
func (a *Adapter) DropAndRecreateDatabase(ctx context.Context, apiPod, dbPod string) error {
	replicas, err := a.replicas(ctx, apiPod)
	if err != nil {
		return err
	}

	log.Info(a.logger, "Scaling down API", "workload", apiPod, "replicas", replicas)
	if err := a.scale(ctx, apiPod, 0); err != nil {
		return err
	}
	if err := a.waitForNoPods(ctx, apiPod); err != nil {
		return fmt.Errorf("%s did not scale down: %w", apiPod, err)
	}

	for _, stmt := range a.settings.Database.Commands {
		if err := a.RunInPod(ctx, dbPod, psqlCommand(stmt), false); err != nil {
			return fmt.Errorf("failed to recreate database in %s: %w", dbPod, err)
		}
	}

	if replicas < 1 {
		replicas = 1
	}
	log.Info(a.logger, "Scaling up API", "workload", apiPod, "replicas", replicas)
	return a.scale(ctx, apiPod, replicas)
}

// replicas reads the desired replica count of the named workload.
func (a *Adapter) replicas(ctx context.Context, name string) (int, error) {
	out, err := a.runner.Output(ctx, a.oc,
		"-n", a.project,
		"get", a.workload(name),
		"-o", "jsonpath={.spec.replicas}",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to read replicas of %s: %w", name, err)
	}
	if out == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected replica count %q for %s: %w", out, name, err)
	}
	return n, nil
}

func (a *Adapter) scale(ctx context.Context, name string, replicas int) error {
	err := a.runner.Run(ctx, a.outputOnly(), a.oc,
		"-n", a.project,
		"scale", a.workload(name),
		"--replicas="+strconv.Itoa(replicas),
	)
	if err != nil {
		return fmt.Errorf("failed to scale %s to %d: %w", name, replicas, err)
	}
	return nil
}

func (a *Adapter) workload(name string) string {
	return a.settings.WorkloadKind + "/" + name
}

// psqlCommand wraps a SQL statement for bash -c. Double quotes are escaped
// but $ is not, so ${VAR} expands in the pod.
func psqlCommand(stmt string) string {
	return `psql -v ON_ERROR_STOP=1 -c "` + strings.ReplaceAll(stmt, `"`, `\"`) + `"`
}
