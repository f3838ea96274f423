package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/djboot/internal/secret"
)

// runSecret executes the secret command with the given flags and
// returns its stdout.
func runSecret(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewSecretCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// TestSecretCommand_Default verifies that the command prints exactly
// one line of the default length to stdout.
func TestSecretCommand_Default(t *testing.T) {
	out, err := runSecret(t)
	require.NoError(t, err)

	require.True(t, strings.HasSuffix(out, "\n"), "output should be newline terminated")
	line := strings.TrimSuffix(out, "\n")
	assert.Len(t, line, secret.DefaultLength)
	assert.NotContains(t, line, "\n", "output must be a single line")
}

// TestSecretCommand_Length verifies the --length flag.
func TestSecretCommand_Length(t *testing.T) {
	out, err := runSecret(t, "--length", "64")
	require.NoError(t, err)

	assert.Len(t, strings.TrimSuffix(out, "\n"), 64)
}

// TestSecretCommand_InvalidLength verifies that a non-positive length
// is rejected.
func TestSecretCommand_InvalidLength(t *testing.T) {
	_, err := runSecret(t, "--length", "0")
	assert.Error(t, err)
}

// TestRootCommand_Subcommands verifies that the root command registers
// both units of behavior.
func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "bootstrap")
	assert.Contains(t, names, "secret")
}
