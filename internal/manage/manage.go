// Package manage provides typed invocations of the web application's
// management CLI.
//
// This package wraps the collaborator's command-line interface (via
// os/exec) the same way the rest of the tool treats it: an opaque
// external process identified by an argv slice, returning success or
// failure. No shell is ever involved — every invocation is an explicit
// executable path plus argument list, so variable values are never
// re-parsed or word-split.
//
// Design decisions:
//   - Each operation is a named method rather than a generic
//     Run(args...) so the call sites read as the bootstrap contract:
//     CheckDatabase, Migrate, CollectStatic, SuperuserExists,
//     CreateSuperuser.
//   - Credentials cross the process boundary exclusively through the
//     child's environment. A password in argv would be visible to every
//     process on the machine via /proc.
//   - Errors fold the child's stderr into the message, because the
//     management CLI writes its diagnostics there.
package manage

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/taskforge/djboot/internal/model"
)

// probeUsernameEnv carries the username into the existence probe. The
// probe script reads it from the environment so the value never has to
// be interpolated into Python source, whatever characters it contains.
const probeUsernameEnv = "DJBOOT_PROBE_USERNAME"

// probeScript is the Python one-liner run via `manage.py shell -c` to
// check whether the administrative account already exists. It prints a
// single marker word on stdout; the exit status stays reserved for
// actual probe failures (unreachable database, import errors).
const probeScript = `import os
from django.contrib.auth import get_user_model
username = os.environ["` + probeUsernameEnv + `"]
print("exists" if get_user_model().objects.filter(username=username).exists() else "absent")`

// Env variable names read by the collaborator's createsuperuser command.
// These match Django's --noinput convention.
const (
	superuserUsernameEnv = "DJANGO_SUPERUSER_USERNAME"
	superuserEmailEnv    = "DJANGO_SUPERUSER_EMAIL"
	superuserPasswordEnv = "DJANGO_SUPERUSER_PASSWORD"
)

// Client invokes the management CLI of the web application.
//
// The zero value is not usable; construct with NewClient. The client is
// stateless between calls — each operation spawns one child process and
// fully awaits it before returning.
type Client struct {
	// base is the argv prefix, e.g. ["python", "manage.py"].
	base []string

	// stepArgs holds extra arguments appended per step, keyed by the
	// model.Step name. Sourced from the bootstrap file.
	stepArgs map[string][]string
}

// NewClient creates a management CLI client. base must contain at least
// the executable; stepArgs may be nil.
func NewClient(base []string, stepArgs map[string][]string) (*Client, error) {
	if len(base) == 0 {
		return nil, model.NewCLIError(model.ExitFailure, "management command must not be empty")
	}
	return &Client{base: base, stepArgs: stepArgs}, nil
}

// CheckDatabase verifies connectivity to the primary data store by
// running the framework's system check against the default database.
func (c *Client) CheckDatabase(ctx context.Context) error {
	_, err := c.run(ctx, model.StepDBCheck, nil, "check", "--database", "default")
	return err
}

// Migrate applies all pending schema migrations.
func (c *Client) Migrate(ctx context.Context) error {
	_, err := c.run(ctx, model.StepMigrate, nil, "migrate", "--noinput")
	return err
}

// CollectStatic gathers static assets into the serving location.
func (c *Client) CollectStatic(ctx context.Context) error {
	_, err := c.run(ctx, model.StepCollectStatic, nil, "collectstatic", "--noinput")
	return err
}

// SuperuserExists reports whether an account with the given username
// already exists. The check runs inside the application's ORM via the
// management shell, so it sees exactly what createsuperuser would see.
//
// Note the probe bypasses per-step extra arguments: anything appended
// after `shell -c <script>` would become positional arguments to the
// script, not options to the step.
func (c *Client) SuperuserExists(ctx context.Context, username string) (bool, error) {
	env := []string{probeUsernameEnv + "=" + username}
	argv := append(append([]string{}, c.base...), "shell", "-c", probeScript)
	out, err := c.runArgv(ctx, argv, env)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "exists"), nil
}

// CreateSuperuser creates the administrative account in one management
// command invocation. The collaborator performs the creation atomically;
// from the entrypoint's point of view it either fully exists afterwards
// or not at all. The password travels only through the child's
// environment.
func (c *Client) CreateSuperuser(ctx context.Context, username, email, password string) error {
	env := []string{
		superuserUsernameEnv + "=" + username,
		superuserEmailEnv + "=" + email,
		superuserPasswordEnv + "=" + password,
	}
	_, err := c.run(ctx, model.StepProvisionAdmin, env,
		"createsuperuser", "--noinput", "--username", username, "--email", email)
	return err
}

// argv assembles the full argument vector for one operation:
// base command, operation arguments, then any per-step extras from the
// bootstrap file.
func (c *Client) argv(step model.Step, args ...string) []string {
	full := make([]string, 0, len(c.base)+len(args)+4)
	full = append(full, c.base...)
	full = append(full, args...)
	full = append(full, c.stepArgs[step.String()]...)
	return full
}

// run executes one management command with the given extra environment,
// appending any per-step extra arguments from the bootstrap file.
func (c *Client) run(ctx context.Context, step model.Step, extraEnv []string, args ...string) (string, error) {
	return c.runArgv(ctx, c.argv(step, args...), extraEnv)
}

// runArgv executes the given argument vector, capturing stdout and
// stderr. On success it returns stdout. On failure it returns a
// CLIError whose message includes the trimmed stderr, because that is
// where the management CLI explains itself.
func (c *Client) runArgv(ctx context.Context, full []string, extraEnv []string) (string, error) {
	// #nosec G204 — argv is assembled from configuration, not request input
	cmd := exec.CommandContext(ctx, full[0], full[1:]...)
	cmd.Env = append(os.Environ(), extraEnv...)

	// Capture stdout and stderr separately so we can include stderr
	// in error messages while returning stdout on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("%s failed", strings.Join(full, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitFailure, message, err)
	}

	return stdout.String(), nil
}
