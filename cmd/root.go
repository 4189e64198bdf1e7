package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Quidge/orgbook-manage/internal/config"
	"github.com/Quidge/orgbook-manage/internal/log"
	"github.com/Quidge/orgbook-manage/internal/manage"
)

// Version is set at build time
var Version = "dev"

// ErrUnknownCommand is returned for a command name manage does not know.
var ErrUnknownCommand = errors.New("unrecognized command")

const (
	red    = "\033[1;31m"
	yellow = "\033[1;33m"
	reset  = "\033[0m"
)

// UsageError is an error caused by how manage was invoked. Usage is printed
// after it.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// app is one invocation of manage.
type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	environ []string
	workDir string

	// adapterType selects the cluster adapter; empty means the default.
	adapterType string

	opts      config.Options
	env       config.Environment
	logger    log.Logger
	helpShown bool
}

func newRootCmd(a *app) *cobra.Command {
	cobra.EnableCaseInsensitive = true

	rootCmd := &cobra.Command{
		Use:   "manage -e <environment> [flags] <command> [pod names...]",
		Short: "Maintain a deployed OrgBook environment",
		Long: `manage runs maintenance operations against an OrgBook environment on
OpenShift: resetting its database, hard resetting it together with its wallet
and DIDs, rebuilding its search index, and registering its DIDs.

Pod names default to django, postgresql, wallet and wallet-db. Commands are
case-insensitive. Settings are read from settings.yaml in $OCTOOLSBIN or the
nearest directory above the working directory that has one.`,
		Example: `  manage -e dev resetDatabase
  manage -e test hardReset django postgresql wallet wallet-db
  manage -e dev rebuildSearchIndex myapi
  manage -e prod -p orgbook registerDids`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErrorf("no command given")
			}
			return &UsageError{Err: fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])}
		},
	}

	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.Environment, "env", "e", "", "environment to operate on, e.g. dev, test or prod (required)")
	flags.StringVarP(&a.opts.Profile, "profile", "p", "", "settings profile to load in addition to the defaults")
	flags.BoolVarP(&a.opts.IgnoreProfiles, "ignore-profiles", "P", false, "use only the default settings, ignoring profiles")
	flags.BoolVarP(&a.opts.ApplyLocalSettings, "local", "l", false, "apply local settings overrides")
	flags.BoolVarP(&a.opts.Debug, "debug", "x", false, "trace every command that runs")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		a.helpShown = true
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(
		newResetDatabaseCmd(a),
		newHardResetCmd(a),
		newRebuildSearchIndexCmd(a),
		newRegisterDidsCmd(a),
		newHistoryCmd(a),
		newInitCmd(a),
	)

	return rootCmd
}

// setup validates the options and reads the environment. It runs before
// every command, so nothing happens without an environment.
func (a *app) setup() error {
	if err := a.opts.Validate(); err != nil {
		return &UsageError{Err: err}
	}

	env, err := config.ReadEnvironment(a.environ)
	if err != nil {
		return err
	}
	a.env = env

	lvl := env.LogLevel
	if a.opts.Debug {
		lvl = "debug"
	}
	a.logger = log.New(a.stderr, lvl)
	log.Debug(a.logger, "Options parsed",
		"env", a.opts.Environment,
		"profile", a.opts.Profile,
		"ignore_profiles", a.opts.IgnoreProfiles,
		"local", a.opts.ApplyLocalSettings,
	)
	return nil
}

// run executes manage with args and returns the exit code: 0 on success, 1
// for anything else, including help.
func run(ctx context.Context, a *app, args []string) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		var usageErr *UsageError
		switch {
		case errors.As(err, &usageErr), errors.Is(err, manage.ErrMissingParameter):
			fmt.Fprintf(a.stderr, "%s%s%s\n\n", yellow, err, reset)
			cmd.SetOut(a.stderr)
			_ = cmd.Usage()
		default:
			fmt.Fprintf(a.stderr, "%sError:%s %s\n", red, reset, err)
		}
		return 1
	}
	if a.helpShown {
		return 1
	}
	return 0
}

// Execute runs manage with the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = ""
	}

	code := run(ctx, &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: os.Environ(),
		workDir: workDir,
	}, os.Args[1:])

	stop()
	os.Exit(code)
}
