package scanner

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MoeTools/nessus/pkg/errors"
)

// failureMarker in the link output indicates a failed attempt even when
// the command exits zero.
const failureMarker = "Failed"

func (s *Scanner) linkArgs(port int) []string {
	args := []string{
		"managed", "link",
		"--key=" + s.cfg.LinkingKey,
		"--name=" + s.cfg.Name,
		"--host=" + s.cfg.Manager.Host,
		"--port=" + strconv.Itoa(port),
	}
	if s.cfg.Proxy.Host != "" {
		args = append(args, "--proxy-host="+s.cfg.Proxy.Host)
		if s.cfg.Proxy.Port != 0 {
			args = append(args, "--proxy-port="+strconv.Itoa(s.cfg.Proxy.Port))
		}
		if s.cfg.Proxy.Username != "" {
			args = append(args, "--proxy-username="+s.cfg.Proxy.Username)
		}
		if s.cfg.Proxy.Password != "" {
			args = append(args, "--proxy-password="+s.cfg.Proxy.Password)
		}
	}
	return args
}

// linkOnce performs a single link attempt against the given manager port.
// A command that could not be invoked at all is a fatal failure; a
// non-zero exit or a failure marker in the output is recoverable.
func (s *Scanner) linkOnce(ctx context.Context, port int) error {
	host := s.cfg.Manager.Host

	res, err := s.runner.Run(ctx, s.cfg.Paths.CLI, s.linkArgs(port)...)
	if err != nil {
		return errors.Wrapf(err, errors.ErrLinkFatal,
			"link to controller at %s:%d could not be attempted", host, port)
	}
	if res.ExitCode != 0 || strings.Contains(res.Output, failureMarker) {
		return errors.Newf(errors.ErrLinkFailed,
			"scanner failed to link to controller at %s:%d", host, port).
			WithDetail("output", strings.TrimSpace(res.Output))
	}

	s.logger.Info().Str("host", host).Int("port", port).
		Msg("Scanner successfully linked to controller")
	return nil
}

// Link joins the scanner to the configured controller. When retry is
// enabled, attempts repeat at a fixed interval without bound until one
// succeeds or the context is canceled; every retry reuses the port of the
// first attempt. When retry is disabled a single failed attempt is
// terminal.
func (s *Scanner) Link(ctx context.Context) error {
	port := s.cfg.Manager.Port

	if !s.cfg.Retry.Enabled {
		return s.linkOnce(ctx, port)
	}

	// With retry enabled even a spawn failure is recoverable; the loop
	// keeps going until an attempt succeeds or the context ends.
	bo := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.Retry.Delay), ctx)
	err := backoff.RetryNotify(
		func() error { return s.linkOnce(ctx, port) },
		bo,
		func(err error, wait time.Duration) {
			s.logger.Warn().Err(err).Dur("retryIn", wait).
				Msg("Failed to link to controller; trying again")
		},
	)
	if err != nil && errors.GetErrorCode(err) == errors.ErrUnknown {
		// Cancellation ends the loop with a bare context error.
		return errors.Wrap(err, errors.ErrLinkFailed, "link retry loop canceled")
	}
	return err
}
