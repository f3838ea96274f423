// Package config assembles the immutable runtime configuration for the
// bootstrap entrypoint from the environment, an optional .env file, an
// optional JSONC bootstrap file, and an optional YAML admin seed.
//
// The Config value is constructed once at process start and passed
// explicitly to every bootstrap step. Nothing in the sequence reads the
// environment after Load returns.
package config
