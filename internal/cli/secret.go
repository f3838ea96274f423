// Package cli — secret.go implements the "djboot secret" command.
//
// The command prints one random signing secret to stdout and nothing
// else, so the output can be piped or pasted directly into environment
// configuration.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskforge/djboot/internal/secret"
)

// NewSecretCommand creates the "secret" cobra command.
func NewSecretCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random signing secret",
		Long: `Generate one cryptographically random secret suitable for use as the
application signing key, drawn from lowercase letters, digits, and the
punctuation set !@#$%^&*(-_=+).

The secret is written to stdout as a single line; all logging goes to
stderr.

Examples:
  djboot secret
  djboot secret --length 64`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := secret.GenerateN(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", secret.DefaultLength, "Secret length in characters")

	return cmd
}
