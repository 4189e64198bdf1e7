package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Quidge/orgbook-manage/internal/state"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List the operations run against the environment",
		Long: `List the operations manage has run against the environment, newest first.

Given a run ID, show that run and the outcome of each of its steps.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := state.Open(a.env.StateDB)
			if err != nil {
				return fmt.Errorf("failed to open run history: %w", err)
			}
			defer db.Close()

			if len(args) == 1 {
				return a.showRun(db, args[0])
			}
			return a.listRuns(db, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

func (a *app) listRuns(db *state.DB, limit int) error {
	runs, err := db.ListRuns(state.ListOptions{
		Environment: a.opts.Environment,
		Limit:       limit,
	})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(a.stdout, "No runs recorded for %s.\n", a.opts.Environment)
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCOMMAND\tARGS\tSTATUS\tSTARTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Command,
			formatArgs(run.Args),
			run.Status,
			humanize.Time(run.StartedAt),
			formatDuration(run),
		)
	}
	return w.Flush()
}

func (a *app) showRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		if errors.Is(err, state.ErrRunNotFound) {
			return fmt.Errorf("%w: %s", err, id)
		}
		return err
	}

	steps, err := db.Steps(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Run:         %s\n", run.ID)
	fmt.Fprintf(a.stdout, "Command:     %s %s\n", run.Command, formatArgs(run.Args))
	fmt.Fprintf(a.stdout, "Environment: %s (%s)\n", run.Environment, run.Project)
	fmt.Fprintf(a.stdout, "Started:     %s (%s)\n", run.StartedAt.Local().Format(time.RFC1123), humanize.Time(run.StartedAt))
	fmt.Fprintf(a.stdout, "Status:      %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(a.stdout, "Error:       %s\n", run.Error)
	}

	if len(steps) == 0 {
		fmt.Fprintln(a.stdout, "\nNo steps recorded.")
		return nil
	}

	fmt.Fprintln(a.stdout)
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tSTATUS\tERROR")
	for _, step := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", step.Seq, step.Name, step.Status, step.Error)
	}
	return w.Flush()
}

func formatArgs(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return strings.Join(args, " ")
}

func formatDuration(run *state.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.Duration().Round(time.Second).String()
}
