package bootstrap

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskforge/djboot/internal/config"
	"github.com/taskforge/djboot/internal/model"
)

// fakeManage records which management operations ran and lets each be
// failed or answered independently.
type fakeManage struct {
	calls []string

	checkErr   error
	migrateErr error
	staticErr  error

	existing  map[string]bool
	existsErr error
	createErr error
}

func (f *fakeManage) CheckDatabase(ctx context.Context) error {
	f.calls = append(f.calls, "check")
	return f.checkErr
}

func (f *fakeManage) Migrate(ctx context.Context) error {
	f.calls = append(f.calls, "migrate")
	return f.migrateErr
}

func (f *fakeManage) CollectStatic(ctx context.Context) error {
	f.calls = append(f.calls, "collectstatic")
	return f.staticErr
}

func (f *fakeManage) SuperuserExists(ctx context.Context, username string) (bool, error) {
	f.calls = append(f.calls, "exists:"+username)
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[username], nil
}

func (f *fakeManage) CreateSuperuser(ctx context.Context, username, email, password string) error {
	f.calls = append(f.calls, "create:"+username)
	if f.createErr != nil {
		return f.createErr
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[username] = true
	return nil
}

// testConfig returns a Config equivalent to the environment defaults,
// with provisioning enabled.
func testConfig() *config.Config {
	return &config.Config{
		Admin: config.Admin{
			Username: "admin",
			Email:    "admin@example.com",
			Password: "pw",
		},
		Port:          8000,
		Host:          "0.0.0.0",
		ServerCommand: []string{"gunicorn", "config.wsgi:application", "--bind", "{host}:{port}"},
	}
}

// testRunner wires a Runner with the fake management client and
// recording stand-ins for exec, lookPath, and exit.
func testRunner(cfg *config.Config, mng ManageClient) (*Runner, *[]string) {
	var execed []string
	r := NewRunner(cfg, zap.NewNop(), mng)
	r.lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	r.execFn = func(argv0 string, argv []string, envv []string) error {
		execed = append([]string{}, argv...)
		return nil
	}
	r.exitFn = func(code int) { panic("unexpected exit") }
	return r, &execed
}

// TestRun_HappyPath verifies the full sequence order and that LAUNCH
// execs the default server command with the resolved port.
func TestRun_HappyPath(t *testing.T) {
	mng := &fakeManage{}
	cfg := testConfig()
	cfg.Port = 9000
	r, execed := testRunner(cfg, mng)

	err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"check", "migrate", "collectstatic", "exists:admin", "create:admin"},
		mng.calls)
	assert.Equal(t,
		[]string{"gunicorn", "config.wsgi:application", "--bind", "0.0.0.0:9000"},
		*execed)
}

// TestRun_DBCheckFailureIsFatal verifies that an unreachable data store
// aborts with exit code 1 before migrations are even attempted.
func TestRun_DBCheckFailureIsFatal(t *testing.T) {
	mng := &fakeManage{checkErr: errors.New("connection refused")}
	r, execed := testRunner(testConfig(), mng)

	err := r.Run(context.Background(), nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitFailure, cliErr.Code)

	assert.Equal(t, []string{"check"}, mng.calls, "neither migrate nor collectstatic may run")
	assert.Empty(t, *execed, "launch must not happen after a fatal step")
}

// TestRun_MigrateFailureIsFatal verifies the same policy for the
// migration step.
func TestRun_MigrateFailureIsFatal(t *testing.T) {
	mng := &fakeManage{migrateErr: errors.New("migration 0042 failed")}
	r, execed := testRunner(testConfig(), mng)

	err := r.Run(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, []string{"check", "migrate"}, mng.calls)
	assert.Empty(t, *execed)
}

// TestRun_NoPasswordSkipsProvisioning verifies the security gate: with
// no configured password there is no probe and no creation call, but
// the sequence still reaches LAUNCH.
func TestRun_NoPasswordSkipsProvisioning(t *testing.T) {
	mng := &fakeManage{}
	cfg := testConfig()
	cfg.Admin.Password = ""
	r, execed := testRunner(cfg, mng)

	err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"check", "migrate", "collectstatic"}, mng.calls)
	assert.NotEmpty(t, *execed, "launch must still occur")
}

// TestRun_ExistingAdminIsIdempotent verifies that an already-provisioned
// account is probed but never re-created, and bootstrap proceeds.
func TestRun_ExistingAdminIsIdempotent(t *testing.T) {
	mng := &fakeManage{existing: map[string]bool{"admin": true}}
	r, execed := testRunner(testConfig(), mng)

	err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"check", "migrate", "collectstatic", "exists:admin"},
		mng.calls)
	assert.NotEmpty(t, *execed)
}

// TestRun_TwiceIsIdempotent verifies the full double-run property: the
// second run probes, finds the account, and creates nothing.
func TestRun_TwiceIsIdempotent(t *testing.T) {
	mng := &fakeManage{}
	cfg := testConfig()

	r1, _ := testRunner(cfg, mng)
	require.NoError(t, r1.Run(context.Background(), nil))

	mng.calls = nil
	r2, _ := testRunner(cfg, mng)
	require.NoError(t, r2.Run(context.Background(), nil))

	assert.Equal(t,
		[]string{"check", "migrate", "collectstatic", "exists:admin"},
		mng.calls, "second run must not attempt duplicate creation")
}

// TestRun_ProvisioningFailureIsNonFatal verifies that both probe
// failures and creation failures are swallowed and launch still occurs.
func TestRun_ProvisioningFailureIsNonFatal(t *testing.T) {
	t.Run("probe failure", func(t *testing.T) {
		mng := &fakeManage{existsErr: errors.New("shell blew up")}
		r, execed := testRunner(testConfig(), mng)

		require.NoError(t, r.Run(context.Background(), nil))
		assert.NotEmpty(t, *execed)
	})

	t.Run("creation failure", func(t *testing.T) {
		mng := &fakeManage{createErr: errors.New("validation error")}
		r, execed := testRunner(testConfig(), mng)

		require.NoError(t, r.Run(context.Background(), nil))
		assert.NotEmpty(t, *execed)
	})
}

// TestRun_SeedAdmins verifies that seeded accounts are provisioned
// after the primary one with the same idempotency handling.
func TestRun_SeedAdmins(t *testing.T) {
	mng := &fakeManage{existing: map[string]bool{"oncall": true}}
	cfg := testConfig()
	cfg.SeedAdmins = []config.Admin{
		{Username: "ops", Email: "ops@example.com", Password: "pw1"},
		{Username: "oncall", Email: "oncall@example.com", Password: "pw2"},
	}
	r, _ := testRunner(cfg, mng)

	require.NoError(t, r.Run(context.Background(), nil))

	assert.Equal(t, []string{
		"check", "migrate", "collectstatic",
		"exists:admin", "create:admin",
		"exists:ops", "create:ops",
		"exists:oncall",
	}, mng.calls)
}

// TestRun_TrailingArgsExecVerbatim verifies that a caller-supplied
// command replaces the default server command exactly.
func TestRun_TrailingArgsExecVerbatim(t *testing.T) {
	mng := &fakeManage{}
	r, execed := testRunner(testConfig(), mng)

	err := r.Run(context.Background(), []string{"gunicorn", "app:server"})
	require.NoError(t, err)

	assert.Equal(t, []string{"gunicorn", "app:server"}, *execed)
}

// TestLaunch_CommandNotFound verifies that an unresolvable launch
// executable is a fatal error rather than a half-launched container.
func TestLaunch_CommandNotFound(t *testing.T) {
	mng := &fakeManage{}
	r, _ := testRunner(testConfig(), mng)
	r.lookPath = func(file string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}

	err := r.Run(context.Background(), nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitFailure, cliErr.Code)
}

// TestHandleTermination_ExitsZero verifies the signal contract: a
// termination signal produces exit status 0, not 1 — operator-requested
// shutdown is not a failure.
func TestHandleTermination_ExitsZero(t *testing.T) {
	mng := &fakeManage{}
	r, _ := testRunner(testConfig(), mng)

	exitCode := -1
	r.exitFn = func(code int) { exitCode = code }

	r.handleTermination(syscall.SIGTERM)
	assert.Equal(t, 0, exitCode)

	exitCode = -1
	r.handleTermination(syscall.SIGINT)
	assert.Equal(t, 0, exitCode)
}
