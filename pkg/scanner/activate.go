package scanner

import (
	"context"

	"github.com/MoeTools/nessus/pkg/errors"
)

// Activate registers the scanner with the configured activation code. The
// service is stopped for registration and started again afterwards.
func (s *Scanner) Activate(ctx context.Context) error {
	s.logger.Info().Msg("Activating scanner with the provided activation code")

	if err := s.StopService(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scanner service before activation")
	}

	if err := s.Register(ctx, s.cfg.ActivationCode); err != nil {
		return err
	}

	s.logger.Info().Msg("Activated scanner successfully")
	s.logUpdateMode()

	if err := s.StartService(ctx); err != nil {
		return errors.Wrapf(err, errors.ErrCommandFailed,
			"failed to start scanner after activation")
	}
	return nil
}

// Register submits the activation code to the licensing backend.
func (s *Scanner) Register(ctx context.Context, code string) error {
	res, err := s.runner.Run(ctx, s.cfg.Paths.CLI, "fetch", "--register", code)
	if err != nil {
		return errors.Wrap(err, errors.ErrCommandFailed, "activation command failed")
	}
	if res.ExitCode != 0 {
		return errors.Newf(errors.ErrCommandFailed,
			"activation failed: exit code %d", res.ExitCode)
	}
	return nil
}

func (s *Scanner) logUpdateMode() {
	switch s.cfg.AutoUpdate {
	case "all":
		s.logger.Info().Msg("Auto updates are on")
	case "plugins":
		s.logger.Info().Msg("Core updates are off but plugin updates are on")
	case "no":
		s.logger.Info().Msg("Updates are turned off")
	}
}
