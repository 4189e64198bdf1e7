package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Quidge/orgbook-manage/internal/cluster"
	_ "github.com/Quidge/orgbook-manage/internal/cluster/oc" // Register oc adapter
	"github.com/Quidge/orgbook-manage/internal/config"
	"github.com/Quidge/orgbook-manage/internal/log"
	"github.com/Quidge/orgbook-manage/internal/manage"
	"github.com/Quidge/orgbook-manage/internal/state"
)

func newResetDatabaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resetDatabase [apiPod [dbPod]]",
		Short: "Drop and recreate the database, then rebuild the search index",
		Long: `Drop and recreate the application database and rebuild the search index.

The API is scaled down while the database is recreated and applies its
migrations when it starts back up. Pod names default to django and postgresql.`,
		Args: usageArgs(cobra.MaximumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, args, func(ctx context.Context, m *manage.Manager) error {
				return m.ResetDatabase(ctx, manage.PodNamesFromArgs(args))
			})
		},
	}
}

func newHardResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hardReset [apiPod [dbPod [walletApiPod [walletDbPod]]]]",
		Short: "Reset the wallet and database, rebuild the index and register the DIDs",
		Long: `Reset the wallet and the application database, rebuild the search index
and register the DIDs again.

manage waits for you twice: before starting, while the dependent agent pods
are scaled down, and before registering, while the ledger restarts. Pod names
default to django, postgresql, wallet and wallet-db.`,
		Args: usageArgs(cobra.MaximumNArgs(4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, args, func(ctx context.Context, m *manage.Manager) error {
				return m.HardReset(ctx, manage.PodNamesFromArgs(args))
			})
		},
	}
}

func newRebuildSearchIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuildSearchIndex [apiPod]",
		Short: "Rebuild the search index",
		Long: `Rebuild the search index inside the API pod (default django).

The indexing command runs interactively and may ask you to confirm.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, args, func(ctx context.Context, m *manage.Manager) error {
				return m.SwitchAndRebuildSearchIndex(ctx, manage.PodNamesFromArgs(args).API)
			})
		},
	}
}

func newRegisterDidsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "registerDids",
		Short: "Register the OrgBook DIDs with the ledger",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, args, func(ctx context.Context, m *manage.Manager) error {
				return m.RegisterDids(ctx, manage.DidNames())
			})
		},
	}
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// withManager loads the configuration, connects the cluster adapter and runs
// op with a Manager. The run is recorded in the history when the history
// database is available.
func (a *app) withManager(cmd *cobra.Command, args []string, op func(context.Context, *manage.Manager) error) error {
	cfg, err := config.Load(a.opts, a.env, a.workDir)
	if err != nil {
		return err
	}

	adapter, err := cluster.Get(cluster.AdapterConfig{
		Type:   a.adapterType,
		Config: cfg,
		Streams: cluster.Streams{
			In:  a.stdin,
			Out: a.stdout,
			Err: a.stderr,
		},
		Logger: a.logger,
	})
	if err != nil {
		return err
	}

	m := &manage.Manager{
		Adapter:            adapter,
		Confirmer:          manage.NewPromptConfirmer(a.stdin, a.stdout),
		Out:                a.stdout,
		Logger:             log.With(a.logger, "command", cmd.Name(), "project", cfg.Project()),
		SearchIndexCommand: cfg.Settings.SearchIndexCommand,
	}

	rec, closeHistory := a.startRun(cmd.Name(), cfg, args)
	defer closeHistory()
	if rec != nil {
		m.Recorder = rec
	}

	err = op(cmd.Context(), m)

	if rec != nil {
		if ferr := rec.Finish(err); ferr != nil {
			log.Warn(a.logger, "Failed to record run outcome", "error", ferr)
		}
	}
	return err
}

// startRun records the start of a run. History is best effort: when the
// database cannot be used the operation runs unrecorded.
func (a *app) startRun(command string, cfg *config.Config, args []string) (*state.RunRecorder, func()) {
	db, err := state.Open(a.env.StateDB)
	if err != nil {
		log.Warn(a.logger, "Run history unavailable", "error", err)
		return nil, func() {}
	}

	run, err := db.StartRun(command, cfg.Options.Environment, cfg.Project(), args)
	if err != nil {
		log.Warn(a.logger, "Run history unavailable", "error", err)
		db.Close()
		return nil, func() {}
	}

	log.Debug(a.logger, "Recording run", "run_id", run.ID, "db", db.Path())
	return &state.RunRecorder{DB: db, RunID: run.ID}, func() {
		if err := db.Close(); err != nil {
			log.Warn(a.logger, "Failed to close run history", "db", db.Path(), "error", err)
		}
	}
}
