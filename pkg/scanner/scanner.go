// Package scanner configures a Nessus installation through its external
// command-line tools: nessuscli for settings, activation, user creation
// and manager linking, and the service supervisor for restarts.
package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MoeTools/nessus/pkg/config"
	"github.com/MoeTools/nessus/pkg/dialogue"
	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/logging"
	"github.com/MoeTools/nessus/pkg/runner"
)

// Options contains construction parameters for a Scanner.
type Options struct {
	Config config.Config
	Logger zerolog.Logger
	// Runner executes external commands; defaults to the exec runner.
	Runner runner.Runner
	// Spawn creates interactive sessions; defaults to dialogue.Spawn with
	// the configured dialogue timeout.
	Spawn dialogue.SpawnFunc
	// PollInterval is the readiness polling period; defaults to one second.
	PollInterval time.Duration
	// DryRun skips the interactive adduser session. Pair it with the
	// runner.DryRun runner to avoid executing any external command.
	DryRun bool
}

// Scanner drives one configuration run against a local installation.
type Scanner struct {
	cfg          config.Config
	runner       runner.Runner
	spawn        dialogue.SpawnFunc
	logger       zerolog.Logger
	pollInterval time.Duration
	dryRun       bool
}

// New creates a Scanner bound to an immutable configuration.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("scanner")
	}

	run := opts.Runner
	if run == nil {
		run = runner.NewExec(logger)
	}

	spawn := opts.Spawn
	if spawn == nil {
		timeout := opts.Config.Dialogue.Timeout
		spawn = func(name string, args ...string) (dialogue.Transport, error) {
			return dialogue.Spawn(logger, timeout, name, args...)
		}
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Scanner{
		cfg:          opts.Config,
		runner:       run,
		spawn:        spawn,
		logger:       logger,
		pollInterval: interval,
		dryRun:       opts.DryRun,
	}
}

// Fix applies one advanced setting through nessuscli.
func (s *Scanner) Fix(ctx context.Context, key, value string, secure bool) error {
	s.logger.Info().Str("setting", key).Str("value", value).Msg("Applying setting")

	args := []string{"fix"}
	if secure {
		args = append(args, "--secure")
	}
	args = append(args, "--set", key+"="+value)

	res, err := s.runner.Run(ctx, s.cfg.Paths.CLI, args...)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCommandFailed, "failed to set %s", key)
	}
	if res.ExitCode != 0 {
		return errors.Newf(errors.ErrCommandFailed,
			"failed to set %s: exit code %d", key, res.ExitCode)
	}
	return nil
}

// StopService stops the scanner background service.
func (s *Scanner) StopService(ctx context.Context) error { return s.service(ctx, "stop") }

// StartService starts the scanner background service.
func (s *Scanner) StartService(ctx context.Context) error { return s.service(ctx, "start") }

// RestartService restarts the scanner background service.
func (s *Scanner) RestartService(ctx context.Context) error { return s.service(ctx, "restart") }

func (s *Scanner) service(ctx context.Context, verb string) error {
	res, err := s.runner.Run(ctx, s.cfg.Paths.Supervisor, verb, s.cfg.Paths.Service)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCommandFailed,
			"failed to %s %s", verb, s.cfg.Paths.Service)
	}
	if res.ExitCode != 0 {
		return errors.Newf(errors.ErrCommandFailed,
			"%s %s: exit code %d", verb, s.cfg.Paths.Service, res.ExitCode)
	}
	return nil
}
