// Package runner invokes external executables and reports their exit
// status and combined output. Components depend on the Runner interface so
// tests can substitute a scripted fake.
package runner

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/logging"
)

// Result is the outcome of one completed command invocation.
type Result struct {
	ExitCode int
	Output   string
}

// Runner executes a command and captures its result. An error is returned
// only when the command could not be run at all; a command that ran and
// exited non-zero yields a Result with the exit code and a nil error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct {
	logger zerolog.Logger
}

// NewExec creates an exec-backed runner.
func NewExec(logger zerolog.Logger) *Exec {
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("runner")
	}
	return &Exec{logger: logger}
}

// Run executes name with args, waiting for completion and capturing
// combined stdout and stderr. Secret-bearing arguments are redacted from
// the log stream.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	start := time.Now()
	e.logger.Debug().
		Str("command", name).
		Strs("args", Redact(args)).
		Msg("Executing command")

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res := Result{ExitCode: exitErr.ExitCode(), Output: string(output)}
			e.logger.Debug().
				Str("command", name).
				Int("exitCode", res.ExitCode).
				Dur("duration", time.Since(start)).
				Msg("Command exited non-zero")
			return res, nil
		}
		return Result{ExitCode: -1}, errors.Wrapf(err, errors.ErrCommandSpawn,
			"failed to run %s", name)
	}

	e.logger.Debug().
		Str("command", name).
		Dur("duration", time.Since(start)).
		Msg("Command completed")
	return Result{ExitCode: 0, Output: string(output)}, nil
}
