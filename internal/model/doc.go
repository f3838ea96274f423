// Package model defines the domain types and value objects for the
// djboot CLI.
//
// This package contains pure data structures with no external
// dependencies: the bootstrap step vocabulary (Step), process exit codes
// (ExitCode), and a custom error type (CLIError) that carries exit codes
// for proper OS process exit handling.
package model
