// Package bootstrap implements the container startup sequence: an
// ordered, single-threaded run of connectivity check, schema migration,
// static asset collection, conditional idempotent admin provisioning,
// and finally process replacement into the server command.
package bootstrap
