// Package cli — bootstrap.go implements the "djboot bootstrap" command.
//
// This is the command a container runtime invokes as process 1. Any
// trailing arguments become the server command exec'd at the end of the
// sequence; with none, the configured default server command is used.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taskforge/djboot/internal/bootstrap"
	"github.com/taskforge/djboot/internal/config"
	"github.com/taskforge/djboot/internal/logging"
	"github.com/taskforge/djboot/internal/manage"
)

// NewBootstrapCommand creates the "bootstrap" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewBootstrapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap [COMMAND...]",
		Short: "Run the container startup sequence and exec the server",
		Long: `Run the ordered startup sequence: database connectivity check, schema
migrations, static asset collection, optional superuser provisioning —
then replace this process with the server command.

Trailing arguments, if present, form the command to exec. Otherwise the
default server command from the bootstrap configuration is used, bound
to the resolved port (PORT, then DJANGO_PORT, then 8000).

Examples:
  djboot bootstrap
  djboot bootstrap gunicorn app:server
  PORT=9000 djboot bootstrap`,

		// Trailing arguments are the launch command, passed through
		// verbatim — cobra must not try to interpret them.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd.Context(), args)
		},
	}

	return cmd
}

// runBootstrap wires the configuration, logger, and management client
// together and hands control to the bootstrap runner. On success this
// function never returns: the process image has been replaced.
func runBootstrap(ctx context.Context, launchArgs []string) error {
	logger := logging.New(verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := manage.NewClient(cfg.ManageCommand, cfg.StepArgs)
	if err != nil {
		return err
	}

	runner := bootstrap.NewRunner(cfg, logger, client)
	return runner.Run(ctx, launchArgs)
}
