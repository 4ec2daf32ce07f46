package scanner

import (
	"context"
	"time"

	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/logging"
)

// Configure runs the full provisioning sequence: wait for the scanner
// database, provision the administrator account, apply general settings,
// then either activate with a code, link to a manager with a key, or
// defer to the welcome wizard when neither is configured.
func (s *Scanner) Configure(ctx context.Context) error {
	defer logging.LogDuration(time.Now(), "scanner configuration")

	s.logger.Info().Msg("Waiting for the scanner to create its database")
	if err := s.WaitForDatabase(ctx); err != nil {
		return err
	}

	s.logger.Info().Msg("Starting scanner configuration")

	if err := s.AddUser(ctx); err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err), "failed to add user to scanner")
	}

	if err := s.ApplySettings(ctx); err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err), "failed to apply scanner settings")
	}

	if s.cfg.ActivationCode == "" && s.cfg.LinkingKey == "" {
		s.logger.Info().Msg("No activation code or linking key provided; deferring to the welcome wizard")
		return nil
	}

	if s.cfg.ActivationCode != "" {
		if err := s.Activate(ctx); err != nil {
			// Activation failure does not produce the fatal exit code;
			// the welcome wizard can still complete activation later.
			s.logger.Error().Err(err).Msg("Failed to activate scanner")
		}
		return nil
	}

	s.logger.Info().Msg("Configuring as a managed scanner")
	if err := s.Fix(ctx, "managed", "managed", true); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to mark scanner as managed")
	}
	if err := s.Link(ctx); err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err),
			"managed scanner failed to link to controller")
	}

	s.logger.Info().Msg("Successfully configured scanner as managed")
	return nil
}
