// Package model defines the domain types for the djboot CLI.
package model

import (
	"fmt"
	"strings"
)

// Step identifies one stage of the bootstrap sequence. The sequence is
// strictly linear:
//
//	db-check → migrate → collect-static → provision-admin → launch
//
// The first three steps are fatal on failure; provision-admin is not.
// Launch replaces the process image and never transitions anywhere.
type Step string

const (
	// StepDBCheck verifies connectivity to the primary data store
	// through the application's management CLI.
	StepDBCheck Step = "db-check"

	// StepMigrate applies pending schema migrations.
	StepMigrate Step = "migrate"

	// StepCollectStatic gathers static assets into the serving location.
	StepCollectStatic Step = "collect-static"

	// StepProvisionAdmin conditionally creates the administrative
	// account. Failures here are logged and swallowed — the container
	// must come up even if provisioning misfires.
	StepProvisionAdmin Step = "provision-admin"

	// StepLaunch execs into the long-running server process.
	StepLaunch Step = "launch"
)

// String returns the string representation of Step.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in logging and error messages.
func (s Step) String() string {
	return string(s)
}

// IsValid checks whether the Step value is one of the predefined steps.
func (s Step) IsValid() bool {
	switch s {
	case StepDBCheck, StepMigrate, StepCollectStatic, StepProvisionAdmin, StepLaunch:
		return true
	default:
		return false
	}
}

// ParseStep converts a string to a Step.
// Returns an error if the string does not match any valid step.
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(s))
	if !step.IsValid() {
		return "", fmt.Errorf("invalid bootstrap step: %q (valid: db-check, migrate, collect-static, provision-admin, launch)", s)
	}
	return step, nil
}

// Steps returns the bootstrap steps in execution order.
func Steps() []Step {
	return []Step{StepDBCheck, StepMigrate, StepCollectStatic, StepProvisionAdmin, StepLaunch}
}

// ExitCode defines the process exit codes of the entrypoint contract.
// The surrounding orchestration distinguishes only success from failure,
// so the code space is deliberately small: a fatal step and a bad
// configuration look the same to a container restart policy.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully, or that
	// the process shut down in response to a termination signal.
	// Operator-requested shutdown is not a failure.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates a fatal bootstrap failure (data store
	// unreachable, migration failure, asset collection failure) or an
	// invalid configuration.
	ExitFailure ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
