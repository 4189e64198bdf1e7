package oc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quidge/orgbook-manage/internal/cluster"
	"github.com/Quidge/orgbook-manage/internal/config"
	"github.com/Quidge/orgbook-manage/internal/log"
)

type call struct {
	name        string
	args        []string
	interactive bool
}

func (c call) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// fakeRunner records every command. Output responses are consumed in order
// per command line; a command line without responses returns "".
type fakeRunner struct {
	calls     []call
	responses map[string][]response
	runErrs   map[string]error
}

type response struct {
	out string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: map[string][]response{},
		runErrs:   map[string]error{},
	}
}

func (f *fakeRunner) respond(cmdline string, rs ...response) {
	f.responses[cmdline] = append(f.responses[cmdline], rs...)
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	c := call{name: name, args: args}
	f.calls = append(f.calls, c)

	key := c.String()
	rs := f.responses[key]
	if len(rs) == 0 {
		return "", nil
	}
	r := rs[0]
	if len(rs) > 1 {
		f.responses[key] = rs[1:]
	}
	return r.out, r.err
}

func (f *fakeRunner) Run(ctx context.Context, streams cluster.Streams, name string, args ...string) error {
	c := call{name: name, args: args, interactive: streams.In != nil}
	f.calls = append(f.calls, c)
	return f.runErrs[c.String()]
}

func (f *fakeRunner) cmdlines() []string {
	lines := make([]string, len(f.calls))
	for i, c := range f.calls {
		lines[i] = c.String()
	}
	return lines
}

const podQuery = "oc -n devex-von-dev get pods -l name=%s --field-selector=status.phase=Running -o jsonpath={.items[*].metadata.name}"

func podQueryFor(name string) string {
	return strings.Replace(podQuery, "%s", name, 1)
}

func newTestAdapter(t *testing.T, runner Runner) *Adapter {
	t.Helper()
	cfg, err := config.Load(config.Options{Environment: "dev"}, config.Environment{}, "")
	require.NoError(t, err)

	a := newAdapter(cluster.AdapterConfig{
		Config: cfg,
		Streams: cluster.Streams{
			In:  strings.NewReader(""),
			Out: &bytes.Buffer{},
			Err: &bytes.Buffer{},
		},
		Logger: log.Nop(),
	}, "oc", runner)
	a.newBackOff = func(time.Duration) backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	}
	return a
}

func TestNewRequiresCLI(t *testing.T) {
	cfg, err := config.Load(config.Options{Environment: "dev"}, config.Environment{}, "")
	require.NoError(t, err)
	cfg.Settings.OCBinary = "definitely-not-an-oc-binary"

	_, err = New(cluster.AdapterConfig{Config: cfg, Logger: log.Nop()})
	assert.ErrorIs(t, err, ErrCLINotFound)
	assert.ErrorContains(t, err, "install the OpenShift CLI")
}

func TestCommandEnvAddsLedger(t *testing.T) {
	for _, tt := range []struct {
		env  string
		want string
	}{
		{"dev", "LEDGER_URL=http://dev.bcovrin.vonx.io"},
		{"prod", "LEDGER_URL=http://prod.bcovrin.vonx.io"},
		{"sandbox", ""},
	} {
		t.Run(tt.env, func(t *testing.T) {
			cfg, err := config.Load(config.Options{Environment: tt.env}, config.Environment{}, "")
			require.NoError(t, err)

			env, err := commandEnv(cfg)
			require.NoError(t, err)

			var got string
			for _, kv := range env {
				if strings.HasPrefix(kv, "LEDGER_URL=") {
					got = kv
				}
			}
			assert.Equal(t, tt.want, got)
			assert.Contains(t, env, "DEPLOYMENT_ENV_NAME="+tt.env)
		})
	}
}

func TestSwitchProject(t *testing.T) {
	runner := newFakeRunner()
	a := newTestAdapter(t, runner)

	require.NoError(t, a.SwitchProject(context.Background()))
	assert.Equal(t, []string{"oc project devex-von-dev"}, runner.cmdlines())

	runner.runErrs["oc project devex-von-dev"] = errors.New("exit status 1")
	err := a.SwitchProject(context.Background())
	assert.ErrorContains(t, err, "failed to switch to project devex-von-dev")
}

func TestRunInPod(t *testing.T) {
	t.Run("interactive attaches stdin", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond(podQueryFor("django"), response{out: "django-3-abcde django-3-fghij"})
		a := newTestAdapter(t, runner)

		err := a.RunInPod(context.Background(), "django", "./scripts/rebuildSearchIndex.sh", true)
		require.NoError(t, err)

		last := runner.calls[len(runner.calls)-1]
		assert.Equal(t, "oc -n devex-von-dev exec -it django-3-abcde -- bash -c ./scripts/rebuildSearchIndex.sh", last.String())
		assert.True(t, last.interactive)
	})

	t.Run("non-interactive leaves stdin detached", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond(podQueryFor("postgresql"), response{out: "postgresql-1-xyz"})
		a := newTestAdapter(t, runner)

		require.NoError(t, a.RunInPod(context.Background(), "postgresql", "true", false))

		last := runner.calls[len(runner.calls)-1]
		assert.Equal(t, "oc -n devex-von-dev exec postgresql-1-xyz -- bash -c true", last.String())
		assert.False(t, last.interactive)
	})

	t.Run("waits for a pod to start", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond(podQueryFor("django"), response{}, response{}, response{out: "django-4-new"})
		a := newTestAdapter(t, runner)

		require.NoError(t, a.RunInPod(context.Background(), "django", "true", false))
		assert.Equal(t, podQueryFor("django"), runner.cmdlines()[2])
		assert.Contains(t, runner.cmdlines()[3], "django-4-new")
	})

	t.Run("gives up when no pod starts", func(t *testing.T) {
		runner := newFakeRunner()
		a := newTestAdapter(t, runner)

		err := a.RunInPod(context.Background(), "django", "true", false)
		assert.ErrorIs(t, err, ErrPodNotRunning)
		assert.Len(t, runner.calls, 4)
	})

	t.Run("query failures are not retried", func(t *testing.T) {
		runner := newFakeRunner()
		queryErr := errors.New("Unauthorized")
		runner.respond(podQueryFor("django"), response{err: queryErr})
		a := newTestAdapter(t, runner)

		err := a.RunInPod(context.Background(), "django", "true", false)
		assert.ErrorIs(t, err, queryErr)
		assert.Len(t, runner.calls, 1)
	})

	t.Run("command failure is reported", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond(podQueryFor("django"), response{out: "django-1-a"})
		runner.runErrs["oc -n devex-von-dev exec django-1-a -- bash -c false"] = errors.New("exit status 1")
		a := newTestAdapter(t, runner)

		err := a.RunInPod(context.Background(), "django", "false", false)
		assert.ErrorContains(t, err, "command failed in pod django-1-a")
	})
}

func TestDropAndRecreateDatabase(t *testing.T) {
	t.Run("scales down, recreates and scales back up", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond("oc -n devex-von-dev get dc/django -o jsonpath={.spec.replicas}", response{out: "2"})
		runner.respond(podQueryFor("django"), response{out: "django-1-a"}, response{out: ""})
		runner.respond(podQueryFor("postgresql"), response{out: "postgresql-1-b"})
		a := newTestAdapter(t, runner)

		require.NoError(t, a.DropAndRecreateDatabase(context.Background(), "django", "postgresql"))

		want := []string{
			"oc -n devex-von-dev get dc/django -o jsonpath={.spec.replicas}",
			"oc -n devex-von-dev scale dc/django --replicas=0",
			podQueryFor("django"),
			podQueryFor("django"),
		}
		for _, stmt := range config.DefaultSettings().Database.Commands {
			want = append(want,
				podQueryFor("postgresql"),
				"oc -n devex-von-dev exec postgresql-1-b -- bash -c "+psqlCommand(stmt),
			)
		}
		want = append(want, "oc -n devex-von-dev scale dc/django --replicas=2")

		assert.Equal(t, want, runner.cmdlines())
	})

	t.Run("scales up to at least one replica", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond("oc -n devex-von-dev get dc/wallet -o jsonpath={.spec.replicas}", response{out: "0"})
		runner.respond(podQueryFor("wallet-db"), response{out: "wallet-db-1-c"})
		a := newTestAdapter(t, runner)

		require.NoError(t, a.DropAndRecreateDatabase(context.Background(), "wallet", "wallet-db"))

		lines := runner.cmdlines()
		assert.Equal(t, "oc -n devex-von-dev scale dc/wallet --replicas=1", lines[len(lines)-1])
	})

	t.Run("stops at the first failing statement", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond("oc -n devex-von-dev get dc/django -o jsonpath={.spec.replicas}", response{out: "1"})
		runner.respond(podQueryFor("postgresql"), response{out: "postgresql-1-b"})
		first := config.DefaultSettings().Database.Commands[0]
		runner.runErrs["oc -n devex-von-dev exec postgresql-1-b -- bash -c "+psqlCommand(first)] = errors.New("exit status 3")
		a := newTestAdapter(t, runner)

		err := a.DropAndRecreateDatabase(context.Background(), "django", "postgresql")
		assert.ErrorContains(t, err, "failed to recreate database in postgresql")

		for _, line := range runner.cmdlines() {
			assert.NotContains(t, line, "--replicas=1", "API must stay scaled down after a failure")
		}
	})

	t.Run("api that never stops", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond("oc -n devex-von-dev get dc/django -o jsonpath={.spec.replicas}", response{out: "1"})
		runner.respond(podQueryFor("django"), response{out: "django-1-a"})
		a := newTestAdapter(t, runner)

		err := a.DropAndRecreateDatabase(context.Background(), "django", "postgresql")
		assert.ErrorIs(t, err, ErrPodsStillRunning)
	})

	t.Run("bad replica count", func(t *testing.T) {
		runner := newFakeRunner()
		runner.respond("oc -n devex-von-dev get dc/django -o jsonpath={.spec.replicas}", response{out: "many"})
		a := newTestAdapter(t, runner)

		err := a.DropAndRecreateDatabase(context.Background(), "django", "postgresql")
		assert.ErrorContains(t, err, `unexpected replica count "many"`)
		assert.Len(t, runner.calls, 1)
	})
}

func TestPsqlCommand(t *testing.T) {
	got := psqlCommand(`DROP DATABASE IF EXISTS "${POSTGRESQL_DATABASE}";`)
	assert.Equal(t, `psql -v ON_ERROR_STOP=1 -c "DROP DATABASE IF EXISTS \"${POSTGRESQL_DATABASE}\";"`, got)
}

func TestRegisterDIDs(t *testing.T) {
	toolsDir := t.TempDir()
	script := filepath.Join(toolsDir, "registerDids.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0755))

	t.Run("runs the tool once with every name", func(t *testing.T) {
		runner := newFakeRunner()
		a := newTestAdapter(t, runner)
		a.toolsDir = toolsDir

		require.NoError(t, a.RegisterDIDs(context.Background(), []string{"the_org_book", "the_org_book_on"}))
		assert.Equal(t, []string{script + " the_org_book the_org_book_on"}, runner.cmdlines())
	})

	t.Run("PATH wins over the settings directory", func(t *testing.T) {
		binDir := t.TempDir()
		onPath := filepath.Join(binDir, "registerDids.sh")
		require.NoError(t, os.WriteFile(onPath, []byte("#!/bin/sh\n"), 0755))

		runner := newFakeRunner()
		a := newTestAdapter(t, runner)
		a.toolsDir = toolsDir
		a.pathList = binDir

		require.NoError(t, a.RegisterDIDs(context.Background(), []string{"x"}))
		assert.Equal(t, []string{onPath + " x"}, runner.cmdlines())
	})

	t.Run("relative paths resolve against the settings directory", func(t *testing.T) {
		runner := newFakeRunner()
		a := newTestAdapter(t, runner)
		a.toolsDir = toolsDir
		a.settings.RegisterDidsCommand = "./scripts/register.sh"

		require.NoError(t, a.RegisterDIDs(context.Background(), []string{"x"}))
		assert.Equal(t, []string{filepath.Join(toolsDir, "scripts", "register.sh") + " x"}, runner.cmdlines())
	})

	t.Run("missing tool", func(t *testing.T) {
		runner := newFakeRunner()
		a := newTestAdapter(t, runner)

		err := a.RegisterDIDs(context.Background(), []string{"x"})
		assert.ErrorContains(t, err, "registerDids.sh could not be found")
		assert.Empty(t, runner.calls)
	})

	t.Run("tool failure", func(t *testing.T) {
		runner := newFakeRunner()
		runner.runErrs[script+" a b"] = errors.New("exit status 2")
		a := newTestAdapter(t, runner)
		a.toolsDir = toolsDir

		err := a.RegisterDIDs(context.Background(), []string{"a", "b"})
		assert.ErrorContains(t, err, "failed to register DIDs a, b")
	})

	t.Run("no names", func(t *testing.T) {
		a := newTestAdapter(t, newFakeRunner())
		assert.Error(t, a.RegisterDIDs(context.Background(), nil))
	})
}
