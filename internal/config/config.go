// Package config assembles the immutable runtime configuration for the
// bootstrap entrypoint.
//
// Configuration is read exactly once, at process start, and carried as
// an explicit Config value through every step — no code reads the
// environment ad hoc mid-sequence. Sources are layered:
//
//  1. an optional .env file (loaded into the environment, never
//     overriding variables the runtime already set)
//  2. the process environment
//  3. an optional JSONC bootstrap file (command overrides)
//  4. hard defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/taskforge/djboot/internal/model"
)

// Environment variable names consumed by the entrypoint. The
// DJANGO_SUPERUSER_* names deliberately match what the collaborator's
// createsuperuser command reads, so the same variables drive both sides.
const (
	EnvAdminUsername = "DJANGO_SUPERUSER_USERNAME"
	EnvAdminEmail    = "DJANGO_SUPERUSER_EMAIL"
	EnvAdminPassword = "DJANGO_SUPERUSER_PASSWORD"
	EnvPort          = "PORT"
	EnvDjangoPort    = "DJANGO_PORT"
	EnvConfigFile    = "DJBOOT_CONFIG"
	EnvAdminSeed     = "DJBOOT_ADMIN_SEED"
	EnvDotenvFile    = "DJBOOT_ENV_FILE"
)

// Defaults applied when the corresponding source is absent.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultPort          = 8000
	DefaultHost          = "0.0.0.0"
	DefaultConfigFile    = "/etc/djboot/djboot.json"
	DefaultAdminSeed     = "/etc/djboot/admins.yaml"
	DefaultDotenvFile    = ".env"
)

// Admin holds the credentials for one administrative account.
// Password is kept in memory only for the duration of provisioning and
// is always handed to the collaborator via its environment, never argv.
type Admin struct {
	Username string
	Email    string
	Password string
}

// Config is the immutable configuration for one bootstrap run.
// Constructed once by Load and passed to every step as an argument.
type Config struct {
	// Admin is the primary administrative account. An empty Password
	// disables provisioning entirely — silent auto-provisioning with a
	// guessable credential must never happen.
	Admin Admin

	// SeedAdmins are additional administrative accounts read from the
	// optional YAML seed file, provisioned after the primary account
	// with the same idempotency and non-fatal policy.
	SeedAdmins []Admin

	// Port is the resolved server bind port. Precedence:
	// PORT, then DJANGO_PORT, then 8000.
	Port int

	// Host is the server bind address. Overridable via the bootstrap
	// file; containers bind all interfaces by default.
	Host string

	// ManageCommand is the argv prefix for invoking the collaborator's
	// management CLI, e.g. ["python", "manage.py"].
	ManageCommand []string

	// StepArgs holds extra arguments appended to the management command
	// of individual steps, keyed by step name.
	StepArgs map[string][]string

	// ServerCommand is the default launch command template. Elements may
	// contain the placeholders {host} and {port}, resolved at launch.
	ServerCommand []string
}

// defaultManageCommand is the conventional Django management entrypoint.
func defaultManageCommand() []string {
	return []string{"python", "manage.py"}
}

// defaultServerCommand launches gunicorn against the application's WSGI
// module, bound to the resolved host and port.
func defaultServerCommand() []string {
	return []string{"gunicorn", "config.wsgi:application", "--bind", "{host}:{port}"}
}

// Load builds the Config for this process.
//
// It loads the optional .env file into the environment first (existing
// variables win), then reads the environment, then applies the optional
// JSONC bootstrap file and YAML admin seed. A missing file is never an
// error; a malformed one is fatal — starting a container with a half
// understood configuration is worse than not starting it.
func Load() (*Config, error) {
	// .env support mirrors how the web application itself is configured
	// in development. godotenv.Load never overrides variables that are
	// already set, so the container runtime's environment stays
	// authoritative.
	dotenv := envOrDefault(EnvDotenvFile, DefaultDotenvFile)
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, model.WrapCLIError(model.ExitFailure,
				fmt.Sprintf("failed to load env file %q", dotenv), err)
		}
	}

	port, err := resolvePort()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Admin: Admin{
			Username: envOrDefault(EnvAdminUsername, DefaultAdminUsername),
			Email:    envOrDefault(EnvAdminEmail, DefaultAdminEmail),
			Password: os.Getenv(EnvAdminPassword),
		},
		Port:          port,
		Host:          DefaultHost,
		ManageCommand: defaultManageCommand(),
		StepArgs:      map[string][]string{},
		ServerCommand: defaultServerCommand(),
	}

	// Layer in the optional JSONC bootstrap file.
	fc, err := LoadFile(envOrDefault(EnvConfigFile, DefaultConfigFile))
	if err != nil {
		return nil, err
	}
	if fc != nil {
		cfg.applyFile(fc)
	}

	// Layer in the optional YAML admin seed.
	seed, err := LoadSeed(envOrDefault(EnvAdminSeed, DefaultAdminSeed))
	if err != nil {
		return nil, err
	}
	cfg.SeedAdmins = seed

	return cfg, nil
}

// applyFile overlays non-empty bootstrap-file values onto the Config.
func (c *Config) applyFile(fc *FileConfig) {
	if len(fc.Manage) > 0 {
		c.ManageCommand = fc.Manage
	}
	if len(fc.Server) > 0 {
		c.ServerCommand = fc.Server
	}
	if fc.Host != "" {
		c.Host = fc.Host
	}
	for step, args := range fc.StepArgs {
		c.StepArgs[step] = args
	}
}

// ProvisioningEnabled reports whether the primary administrative account
// should be provisioned. Absence of a configured password disables the
// feature — this is a deliberate security control, not an oversight.
func (c *Config) ProvisioningEnabled() bool {
	return c.Admin.Password != ""
}

// LaunchCommand returns the argv to exec at the LAUNCH step.
//
// If the caller supplied trailing arguments, they form the command
// verbatim. Otherwise the default server command template is expanded
// with the resolved bind host and port.
func (c *Config) LaunchCommand(args []string) []string {
	if len(args) > 0 {
		return args
	}

	expanded := make([]string, len(c.ServerCommand))
	for i, elem := range c.ServerCommand {
		elem = strings.ReplaceAll(elem, "{host}", c.Host)
		elem = strings.ReplaceAll(elem, "{port}", strconv.Itoa(c.Port))
		expanded[i] = elem
	}
	return expanded
}

// resolvePort determines the server bind port.
//
// Precedence: an explicit PORT value, falling back to DJANGO_PORT,
// falling back to the hard default 8000. A set-but-invalid value is a
// configuration error rather than a silent fallback.
func resolvePort() (int, error) {
	for _, name := range []string{EnvPort, EnvDjangoPort} {
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return 0, model.NewCLIError(model.ExitFailure,
				fmt.Sprintf("invalid port in %s: %q (must be 1-65535)", name, raw))
		}
		return port, nil
	}
	return DefaultPort, nil
}

// envOrDefault returns the value of the named environment variable, or
// fallback if it is unset or empty.
func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
