// Package config loads the scanner configuration from built-in defaults,
// an optional operator config file, and environment variables. The result
// is a single immutable value handed to every component at construction.
package config

import (
	"time"

	"github.com/MoeTools/nessus/pkg/errors"
)

// Config is the complete configuration for one run of nessus-configure.
type Config struct {
	// Name is the scanner name registered with the manager. Defaults to
	// the hostname when unset.
	Name string `koanf:"name"`

	// Credentials for the local administrator account. Both must be set
	// for the account to be created; both unset skips user creation.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// ActivationCode registers the scanner directly. Mutually exclusive
	// with LinkingKey.
	ActivationCode string `koanf:"activation_code"`

	// LinkingKey joins the scanner to a remote manager as a managed
	// scanner.
	LinkingKey string `koanf:"linking_key"`

	// AutoUpdate is one of "all", "plugins" or "no".
	AutoUpdate string `koanf:"auto_update"`

	// DisableCoreUpdates is passed through to the scanner when a linking
	// key is configured ("yes"/"no").
	DisableCoreUpdates string `koanf:"disable_core_updates"`

	Manager   Manager   `koanf:"manager"`
	Proxy     Proxy     `koanf:"proxy"`
	Retry     Retry     `koanf:"retry"`
	Readiness Readiness `koanf:"readiness"`
	Dialogue  Dialogue  `koanf:"dialogue"`
	Paths     Paths     `koanf:"paths"`
}

// Manager identifies the remote controller for the linking procedure.
type Manager struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Proxy holds optional proxy parameters for the link command. A proxy is
// used only when Host is set.
type Proxy struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Retry controls the link retry loop.
type Retry struct {
	Enabled bool          `koanf:"enabled"`
	Delay   time.Duration `koanf:"delay"`
}

// Readiness bounds the wait for the scanner database marker.
type Readiness struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Dialogue bounds each expected-prompt wait in the adduser dialogue.
type Dialogue struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Paths locates the external tools and the readiness marker.
type Paths struct {
	CLI        string `koanf:"cli"`
	Supervisor string `koanf:"supervisor"`
	Service    string `koanf:"service"`
	Database   string `koanf:"database"`
}

// HasCredentials reports whether both account credentials are present.
func (c Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Validate checks the invariants that must hold before any external
// command runs. Violations are configuration errors and abort the run.
func (c Config) Validate() error {
	if (c.Username == "") != (c.Password == "") {
		return errors.New(errors.ErrConfigValid,
			"username and password must be provided together")
	}

	if c.ActivationCode != "" && c.LinkingKey != "" {
		return errors.New(errors.ErrConfigValid,
			"activation code and linking key are mutually exclusive")
	}

	switch c.AutoUpdate {
	case "all", "plugins", "no":
	default:
		return errors.Newf(errors.ErrConfigValid,
			"invalid update mode %q (expected all, plugins or no)", c.AutoUpdate)
	}

	if c.Retry.Delay <= 0 {
		return errors.New(errors.ErrConfigValid, "retry delay must be positive")
	}
	if c.Readiness.Timeout <= 0 {
		return errors.New(errors.ErrConfigValid, "readiness timeout must be positive")
	}
	if c.Dialogue.Timeout <= 0 {
		return errors.New(errors.ErrConfigValid, "dialogue timeout must be positive")
	}

	return nil
}
