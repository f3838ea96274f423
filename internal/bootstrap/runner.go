// Package bootstrap implements the container startup sequence.
//
// The sequence is a linear state machine with no branching back:
//
//	INIT → DB_CHECK → MIGRATE → COLLECT_STATIC → PROVISION_ADMIN → LAUNCH
//
// DB_CHECK, MIGRATE and COLLECT_STATIC are fatal on failure: the runner
// logs and returns an error carrying exit code 1. PROVISION_ADMIN is
// non-fatal: any failure is logged as a warning and the sequence
// continues, because the container must come up even if the admin
// account could not be created. LAUNCH replaces the process image and
// never returns on success.
//
// There are no retries anywhere. The entrypoint assumes the surrounding
// orchestration restarts the container if a fatal step fails.
package bootstrap

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/taskforge/djboot/internal/config"
	"github.com/taskforge/djboot/internal/model"
)

// ManageClient is the subset of the management CLI the runner needs.
// internal/manage.Client satisfies it; tests substitute a fake.
type ManageClient interface {
	CheckDatabase(ctx context.Context) error
	Migrate(ctx context.Context) error
	CollectStatic(ctx context.Context) error
	SuperuserExists(ctx context.Context, username string) (bool, error)
	CreateSuperuser(ctx context.Context, username, email, password string) error
}

// Runner executes the bootstrap sequence for one container start.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
	mng ManageClient

	// execFn replaces the current process image. Production wiring is
	// syscall.Exec; tests substitute a recorder. It only returns on
	// error.
	execFn func(argv0 string, argv []string, envv []string) error

	// lookPath resolves the launch executable on PATH before exec,
	// because execve requires an absolute or relative path.
	lookPath func(file string) (string, error)

	// exitFn terminates the process; used by the signal handler so the
	// graceful-shutdown path is testable without killing the test
	// binary.
	exitFn func(code int)
}

// NewRunner creates a Runner with production process wiring.
func NewRunner(cfg *config.Config, log *zap.Logger, mng ManageClient) *Runner {
	return &Runner{
		cfg:      cfg,
		log:      log,
		mng:      mng,
		execFn:   syscall.Exec,
		lookPath: exec.LookPath,
		exitFn:   os.Exit,
	}
}

// Run executes the full sequence. launchArgs, if non-empty, form the
// command to exec at LAUNCH; otherwise the configured default server
// command is used.
//
// On success Run never returns: the process image has been replaced.
// A returned error is always a *model.CLIError with ExitFailure.
func (r *Runner) Run(ctx context.Context, launchArgs []string) error {
	// INIT: termination signals received anywhere in the sequence mean
	// operator-requested shutdown, which exits 0 — distinguishing it
	// from failure matters to the orchestrator's restart policy.
	r.installSignalHandler()
	r.log.Info("starting bootstrap sequence")

	if err := r.fatalStep(ctx, model.StepDBCheck, "database connectivity check", r.mng.CheckDatabase); err != nil {
		return err
	}
	if err := r.fatalStep(ctx, model.StepMigrate, "schema migration", r.mng.Migrate); err != nil {
		return err
	}
	if err := r.fatalStep(ctx, model.StepCollectStatic, "static asset collection", r.mng.CollectStatic); err != nil {
		return err
	}

	r.provisionAdmins(ctx)

	return r.launch(launchArgs)
}

// fatalStep runs one infrastructure step and converts its failure into
// a fatal CLIError. The completion status is inspected immediately —
// there is no deferred or batched error checking.
func (r *Runner) fatalStep(ctx context.Context, step model.Step, what string, fn func(context.Context) error) error {
	r.log.Info("running "+what, zap.Stringer("step", step))
	if err := fn(ctx); err != nil {
		r.log.Error("✗ "+what+" failed", zap.Stringer("step", step), zap.Error(err))
		return model.WrapCLIError(model.ExitFailure, what+" failed", err)
	}
	r.log.Info("✓ " + what + " succeeded")
	return nil
}

// provisionAdmins runs the PROVISION_ADMIN step: the primary account
// from the environment, then any seeded accounts. Every failure path
// logs a warning and falls through — provisioning never blocks launch.
func (r *Runner) provisionAdmins(ctx context.Context) {
	if !r.cfg.ProvisioningEnabled() {
		// Deliberate security control: without an explicit password we
		// refuse to auto-provision rather than invent a guessable one.
		r.log.Warn("skipping superuser provisioning: " + config.EnvAdminPassword + " is not set")
	} else {
		r.provisionOne(ctx, r.cfg.Admin)
	}

	for _, admin := range r.cfg.SeedAdmins {
		r.provisionOne(ctx, admin)
	}
}

// provisionOne idempotently creates a single administrative account:
// probe first, create only on absence. Running the sequence twice with
// the same configuration must not attempt duplicate creation.
func (r *Runner) provisionOne(ctx context.Context, admin config.Admin) {
	exists, err := r.mng.SuperuserExists(ctx, admin.Username)
	if err != nil {
		r.log.Warn("✗ superuser existence check failed, continuing",
			zap.String("username", admin.Username), zap.Error(err))
		return
	}
	if exists {
		r.log.Info("✓ superuser already exists, skipping creation",
			zap.String("username", admin.Username))
		return
	}

	if err := r.mng.CreateSuperuser(ctx, admin.Username, admin.Email, admin.Password); err != nil {
		r.log.Warn("✗ superuser creation failed, continuing",
			zap.String("username", admin.Username), zap.Error(err))
		return
	}
	r.log.Info("✓ superuser created", zap.String("username", admin.Username))
}

// launch replaces the current process image with the server command.
// Nothing after a successful exec runs — signal handlers installed
// earlier become moot once replacement occurs.
func (r *Runner) launch(launchArgs []string) error {
	argv := r.cfg.LaunchCommand(launchArgs)

	path, err := r.lookPath(argv[0])
	if err != nil {
		r.log.Error("✗ launch command not found", zap.String("command", argv[0]), zap.Error(err))
		return model.WrapCLIError(model.ExitFailure, "launch command not found", err)
	}

	r.log.Info("✓ bootstrap complete, launching server", zap.Strings("argv", argv))
	// Flush before the process image disappears.
	_ = r.log.Sync()

	if err := r.execFn(path, argv, os.Environ()); err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to exec server process", err)
	}
	return nil
}

// installSignalHandler arranges for SIGTERM and SIGINT to exit the
// process with status 0. The in-flight external command, if any, gets
// the operating system's default signal propagation; no explicit
// cancellation is attempted.
func (r *Runner) installSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		r.handleTermination(<-ch)
	}()
}

// handleTermination logs the signal and exits cleanly. Split out from
// the goroutine so the exit-0 contract is directly testable.
func (r *Runner) handleTermination(sig os.Signal) {
	r.log.Info("received termination signal, shutting down", zap.String("signal", sig.String()))
	_ = r.log.Sync()
	r.exitFn(int(model.ExitSuccess))
}
