package scanner

import (
	"context"
	"os"
	"time"

	"github.com/MoeTools/nessus/pkg/errors"
)

// WaitForDatabase polls for the scanner database until it exists with a
// non-zero size. The scanner creates it shortly after first start; the
// interactive tools misbehave until it does. Polling is bounded by the
// configured readiness timeout.
func (s *Scanner) WaitForDatabase(ctx context.Context) error {
	path := s.cfg.Paths.Database
	if s.dryRun {
		s.logger.Info().Str("path", path).Msg("[DRY RUN] Would wait for scanner database")
		return nil
	}
	deadline := time.Now().Add(s.cfg.Readiness.Timeout)

	for {
		if databaseReady(path) {
			s.logger.Debug().Str("path", path).Msg("Scanner database is ready")
			return nil
		}
		if !time.Now().Before(deadline) {
			return errors.Newf(errors.ErrReadinessTimeout,
				"scanner did not create %s within %s", path, s.cfg.Readiness.Timeout)
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrReadinessTimeout, "readiness wait canceled")
		case <-time.After(s.pollInterval):
		}
	}
}

func databaseReady(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
