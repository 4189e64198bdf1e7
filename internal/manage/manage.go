// Package manage implements the environment maintenance operations. Each
// operation is a fixed sequence of steps against a cluster.Adapter; the first
// failing step ends the operation and nothing already done is rolled back.
package manage

import (
	"context"
	"fmt"
	"io"

	"github.com/Quidge/orgbook-manage/internal/cluster"
	"github.com/Quidge/orgbook-manage/internal/log"
)

const (
	scaleDownPrompt = "Use the companion tooling to scale down all of the dependent agent pods.\n" +
		"Wait for every pod to completely shut down before continuing."

	ledgerPrompt = "If the ledger is being reset, wait for it to completely start up before continuing."

	resetCompleteWarning = "The database has been reset and the search index rebuilt.\n" +
		"Use the companion tooling to recycle the dependent agent pods."

	hardResetCompleteWarning = "The wallet and database have been reset and the DIDs registered.\n" +
		"Use the companion tooling to scale the dependent agent pods back up."

	searchIndexWarning = "Rebuilding the search index may ask for confirmation inside the pod.\n" +
		"Answer the prompt when it appears."
)

// Recorder is told the outcome of every step.
type Recorder interface {
	RecordStep(name string, err error) error
}

// Manager runs operations. Adapter, Confirmer and Out are required.
type Manager struct {
	Adapter   cluster.Adapter
	Confirmer Confirmer
	Out       io.Writer
	Logger    log.Logger

	// Recorder is optional.
	Recorder Recorder

	// SearchIndexCommand is run inside the API pod to rebuild the index.
	SearchIndexCommand string
}

// SwitchProject makes the environment's project current.
func (m *Manager) SwitchProject(ctx context.Context) error {
	return m.step("switch project", func() error {
		return m.Adapter.SwitchProject(ctx)
	})
}

// ResetDatabase drops and recreates the application database and rebuilds
// the search index.
func (m *Manager) ResetDatabase(ctx context.Context, pods PodNames) error {
	if err := requireParams("apiPod", pods.API, "dbPod", pods.DB); err != nil {
		return err
	}

	if err := m.SwitchProject(ctx); err != nil {
		return err
	}
	if err := m.dropAndRecreate(ctx, "reset database", pods.API, pods.DB); err != nil {
		return err
	}
	if err := m.RebuildSearchIndex(ctx, pods.API); err != nil {
		return err
	}

	m.warn(resetCompleteWarning)
	return nil
}

// RebuildSearchIndex runs the indexing command interactively in apiPod.
func (m *Manager) RebuildSearchIndex(ctx context.Context, apiPod string) error {
	if err := requireParams("apiPod", apiPod); err != nil {
		return err
	}

	m.warn(searchIndexWarning)
	return m.step("rebuild search index", func() error {
		return m.Adapter.RunInPod(ctx, apiPod, m.SearchIndexCommand, true)
	})
}

// SwitchAndRebuildSearchIndex makes the project current and rebuilds the
// search index in apiPod. Nothing runs unless apiPod is given.
func (m *Manager) SwitchAndRebuildSearchIndex(ctx context.Context, apiPod string) error {
	if err := requireParams("apiPod", apiPod); err != nil {
		return err
	}

	if err := m.SwitchProject(ctx); err != nil {
		return err
	}
	return m.RebuildSearchIndex(ctx, apiPod)
}

// HardReset resets the wallet and the application database, rebuilds the
// search index and registers the DIDs again. It waits for the operator
// before starting and again before registering.
func (m *Manager) HardReset(ctx context.Context, pods PodNames) error {
	if err := requireParams(
		"apiPod", pods.API,
		"dbPod", pods.DB,
		"walletApiPod", pods.WalletAPI,
		"walletDbPod", pods.WalletDB,
	); err != nil {
		return err
	}

	if err := m.confirm(ctx, "confirm scale down", scaleDownPrompt); err != nil {
		return err
	}
	if err := m.SwitchProject(ctx); err != nil {
		return err
	}
	if err := m.dropAndRecreate(ctx, "reset wallet", pods.WalletAPI, pods.WalletDB); err != nil {
		return err
	}
	if err := m.dropAndRecreate(ctx, "reset database", pods.API, pods.DB); err != nil {
		return err
	}
	if err := m.RebuildSearchIndex(ctx, pods.API); err != nil {
		return err
	}
	if err := m.confirm(ctx, "confirm ledger restart", ledgerPrompt); err != nil {
		return err
	}
	if err := m.RegisterDids(ctx, DidNames()); err != nil {
		return err
	}

	m.warn(hardResetCompleteWarning)
	return nil
}

// RegisterDids registers every name in a single call.
func (m *Manager) RegisterDids(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: names", ErrMissingParameter)
	}
	return m.step("register dids", func() error {
		return m.Adapter.RegisterDIDs(ctx, names)
	})
}

func (m *Manager) dropAndRecreate(ctx context.Context, name, apiPod, dbPod string) error {
	return m.step(name, func() error {
		return m.Adapter.DropAndRecreateDatabase(ctx, apiPod, dbPod)
	})
}

func (m *Manager) confirm(ctx context.Context, name, message string) error {
	return m.step(name, func() error {
		return m.Confirmer.Confirm(ctx, message)
	})
}

// step runs fn as the named step. Failing to record a step is logged and
// otherwise ignored.
func (m *Manager) step(name string, fn func() error) error {
	logger := log.With(m.logger(), "step", name)
	log.Debug(logger, "Starting step")

	err := fn()
	if m.Recorder != nil {
		if rerr := m.Recorder.RecordStep(name, err); rerr != nil {
			log.Warn(logger, "Failed to record step", "error", rerr)
		}
	}
	if err != nil {
		log.Debug(logger, "Step failed", "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	log.Debug(logger, "Step finished")
	return nil
}

func (m *Manager) logger() log.Logger {
	if m.Logger == nil {
		return log.Nop()
	}
	return m.Logger
}

// warn writes message to Out in yellow.
func (m *Manager) warn(message string) {
	fmt.Fprintf(m.Out, "\n\033[1;33m%s\033[0m\n", message)
}
