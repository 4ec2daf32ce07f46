package runner

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRun is a Runner that logs every command instead of executing it and
// reports success. Used by the --dry-run flag.
type DryRun struct {
	Logger zerolog.Logger
}

var _ Runner = (*DryRun)(nil)

func (d *DryRun) Run(ctx context.Context, name string, args ...string) (Result, error) {
	d.Logger.Info().
		Str("command", name).
		Strs("args", Redact(args)).
		Msg("Dry run - command not executed")
	return Result{ExitCode: 0}, nil
}
