package dialogue

import (
	"io"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/logging"
)

// closeGrace is how long Close waits for the process to exit after stdin
// closes before killing it.
const closeGrace = 2 * time.Second

// Console is the exec-backed Transport. Stdout and stderr are merged into
// one stream, matching what the interactive tool prints to a terminal.
// The spawned process is owned exclusively by the Console and is
// terminated on Close.
type Console struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	timeout time.Duration
	logger  zerolog.Logger

	mu  sync.Mutex
	buf []byte

	notify  chan struct{}
	done    chan struct{}
	waitErr error

	closeOnce sync.Once
}

var _ Transport = (*Console)(nil)

// Spawn starts name with args and returns a Console whose Expect calls
// are bounded by timeout.
func Spawn(logger zerolog.Logger, timeout time.Duration, name string, args ...string) (*Console, error) {
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("dialogue")
	}

	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDialogueSpawn, "failed to open stdin for %s", name)
	}

	c := &Console{
		cmd:     cmd,
		stdin:   stdin,
		timeout: timeout,
		logger:  logger,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	cmd.Stdout = (*consoleWriter)(c)
	cmd.Stderr = (*consoleWriter)(c)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDialogueSpawn, "failed to start %s", name)
	}
	logger.Debug().Str("command", name).Strs("args", args).Int("pid", cmd.Process.Pid).
		Msg("Interactive session started")

	go func() {
		c.waitErr = cmd.Wait()
		close(c.done)
	}()

	return c, nil
}

// consoleWriter appends process output to the session buffer and wakes any
// pending Expect.
type consoleWriter Console

func (w *consoleWriter) Write(p []byte) (int, error) {
	c := (*Console)(w)
	c.mu.Lock()
	c.buf = append(c.buf, p...)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Expect blocks until the output stream matches one of patterns, the
// per-prompt timeout expires, or the process exits.
func (c *Console) Expect(patterns ...string) (int, error) {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return -1, errors.Wrapf(err, errors.ErrInternal, "invalid prompt pattern %q", p)
		}
		res[i] = re
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	exited := false
	for {
		if idx, ok := c.match(res); ok {
			c.logger.Trace().Str("pattern", patterns[idx]).Msg("Prompt matched")
			return idx, nil
		}
		if exited {
			err := errors.Newf(errors.ErrDialogueMismatch,
				"process exited before an expected prompt; trailing output: %q", c.snapshot())
			if c.waitErr != nil {
				err = err.WithDetail("exit", c.waitErr.Error())
			}
			return -1, err
		}

		select {
		case <-c.notify:
		case <-c.done:
			// Output copying finishes before Wait returns, so one more
			// match pass sees everything the process wrote.
			exited = true
		case <-timer.C:
			return -1, errors.Newf(errors.ErrDialogueTimeout,
				"no expected prompt within %s; trailing output: %q", c.timeout, c.snapshot())
		}
	}
}

// match scans the buffered output for the first pattern that matches and
// discards everything up to the end of the match.
func (c *Console) match(res []*regexp.Regexp) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, re := range res {
		if loc := re.FindIndex(c.buf); loc != nil {
			c.buf = c.buf[loc[1]:]
			return i, true
		}
	}
	return -1, false
}

func (c *Console) snapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buf)
}

// SendLine writes one newline-terminated response to the process.
func (c *Console) SendLine(line string) error {
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		return errors.Wrap(err, errors.ErrDialogueMismatch, "failed to send response")
	}
	return nil
}

// Close ends the session. Stdin is closed first to let the process exit
// on its own; after a short grace it is killed.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
		select {
		case <-c.done:
		case <-time.After(closeGrace):
			if c.cmd.Process != nil {
				_ = c.cmd.Process.Kill()
			}
			<-c.done
		}
		c.logger.Debug().Msg("Interactive session closed")
	})
	return nil
}
