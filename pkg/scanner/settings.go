package scanner

import "context"

// ApplySettings applies the general scanner settings: the scanner name,
// the update mode, and the managed-update flag when a linking key is
// configured. Individual setting failures are logged and do not abort the
// run; the service restart afterwards is likewise best-effort.
func (s *Scanner) ApplySettings(ctx context.Context) error {
	s.fixBestEffort(ctx, "ms_name", s.cfg.Name, true)

	switch s.cfg.AutoUpdate {
	case "all":
		s.fixBestEffort(ctx, "auto_update", "yes", false)
	case "plugins":
		s.fixBestEffort(ctx, "auto_update_ui", "no", false)
		s.fixBestEffort(ctx, "auto_update", "yes", false)
	case "no":
		s.fixBestEffort(ctx, "auto_update", "no", false)
	}

	if s.cfg.LinkingKey != "" {
		s.fixBestEffort(ctx, "disable_core_updates", s.cfg.DisableCoreUpdates, false)
	}

	if err := s.RestartService(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to restart scanner service")
	}
	return nil
}

func (s *Scanner) fixBestEffort(ctx context.Context, key, value string, secure bool) {
	if err := s.Fix(ctx, key, value, secure); err != nil {
		s.logger.Warn().Err(err).Str("setting", key).Msg("Failed to apply setting")
	}
}
