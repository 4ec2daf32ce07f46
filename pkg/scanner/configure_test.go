package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeTools/nessus/pkg/config"
	"github.com/MoeTools/nessus/pkg/dialogue"
	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/runner"
)

// readyConfig returns a configuration whose database marker already
// exists, so Configure proceeds straight to the command sequence.
func readyConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "global.db")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	cfg := testConfig()
	cfg.Paths.Database = path
	return cfg
}

func TestConfigureDefersToWizard(t *testing.T) {
	cfg := readyConfig(t)

	rec := &runner.Recorder{}
	s := newTestScanner(t, cfg, rec)

	require.NoError(t, s.Configure(context.Background()))

	// Settings only: no activation, no link.
	assert.Equal(t, [][]string{
		{"fix", "--secure", "--set", "ms_name=scanner-1"},
		{"fix", "--set", "auto_update=yes"},
		{"restart", "nessusd"},
	}, settingArgs(rec.Calls))
}

func TestConfigureActivates(t *testing.T) {
	cfg := readyConfig(t)
	cfg.ActivationCode = "AAAA-BBBB-CCCC"

	rec := &runner.Recorder{}
	s := newTestScanner(t, cfg, rec)

	require.NoError(t, s.Configure(context.Background()))
	assert.Contains(t, settingArgs(rec.Calls), []string{"fetch", "--register", "AAAA-BBBB-CCCC"})
}

func TestConfigureActivationFailureIsNotFatal(t *testing.T) {
	cfg := readyConfig(t)
	cfg.ActivationCode = "AAAA-BBBB-CCCC"

	rec := &runner.Recorder{Responses: []runner.Response{
		{Result: runner.Result{ExitCode: 0}},                         // ms_name
		{Result: runner.Result{ExitCode: 0}},                         // auto_update
		{Result: runner.Result{ExitCode: 0}},                         // restart
		{Result: runner.Result{ExitCode: 0}},                         // stop
		{Result: runner.Result{ExitCode: 1, Output: "invalid code"}}, // fetch
	}}
	s := newTestScanner(t, cfg, rec)

	// The welcome wizard can still activate the scanner later, so a failed
	// activation does not fail the run.
	require.NoError(t, s.Configure(context.Background()))
}

func TestConfigureLinksManagedScanner(t *testing.T) {
	cfg := readyConfig(t)
	cfg.LinkingKey = "abc123"

	rec := &runner.Recorder{}
	s := newTestScanner(t, cfg, rec)

	require.NoError(t, s.Configure(context.Background()))

	calls := settingArgs(rec.Calls)
	assert.Contains(t, calls, []string{"fix", "--secure", "--set", "managed=managed"})
	assert.Contains(t, calls, []string{
		"managed", "link",
		"--key=abc123",
		"--name=scanner-1",
		"--host=cloud.tenable.com",
		"--port=443",
	})
}

func TestConfigureLinkFailureIsFatal(t *testing.T) {
	cfg := readyConfig(t)
	cfg.LinkingKey = "abc123"

	rec := &runner.Recorder{Responses: []runner.Response{
		{Result: runner.Result{ExitCode: 0}}, // ms_name
		{Result: runner.Result{ExitCode: 0}}, // auto_update
		{Result: runner.Result{ExitCode: 0}}, // disable_core_updates
		{Result: runner.Result{ExitCode: 0}}, // restart
		{Result: runner.Result{ExitCode: 0}}, // managed=managed
		{Result: runner.Result{ExitCode: 1, Output: "Failed"}}, // link
	}}
	s := newTestScanner(t, cfg, rec)

	err := s.Configure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLinkFailed))
}

func TestConfigureAbortsWhenScannerNeverReady(t *testing.T) {
	cfg := testConfig()
	cfg.Readiness.Timeout = 50 * time.Millisecond

	rec := &runner.Recorder{}
	s := New(Options{
		Config:       cfg,
		Logger:       zerolog.New(io.Discard),
		Runner:       rec,
		PollInterval: 10 * time.Millisecond,
	})

	err := s.Configure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrReadinessTimeout))
	assert.Equal(t, 0, rec.CallCount(), "no command may run before the scanner is ready")
}

func TestConfigureAbortsOnUserCreationFailure(t *testing.T) {
	cfg := readyConfig(t)
	cfg.Username = "admin"
	cfg.Password = "s3cret"

	rec := &runner.Recorder{}
	s := New(Options{
		Config: cfg,
		Logger: zerolog.New(io.Discard),
		Runner: rec,
		Spawn: func(name string, args ...string) (dialogue.Transport, error) {
			return &scriptedTransport{outputs: []string{"garbage the tool never prints"}}, nil
		},
	})

	err := s.Configure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDialogueMismatch))
	assert.Equal(t, 0, rec.CallCount(), "settings must not be applied after a failed user creation")
}

func TestConfigureRunsFullManagedFlow(t *testing.T) {
	cfg := readyConfig(t)
	cfg.Username = "admin"
	cfg.Password = "s3cret"
	cfg.LinkingKey = "abc123"

	ft := &scriptedTransport{outputs: []string{
		"Login: ",
		"Login password: ",
		"Login password (again): ",
		"Do you want this user to be a Nessus 'system' administrator user? (y/n) [n]: ",
		"(the user can have an empty rules set)",
		"Is that ok? (y/n) [n]: ",
		"User added",
	}}

	rec := &runner.Recorder{}
	s := New(Options{
		Config: cfg,
		Logger: zerolog.New(io.Discard),
		Runner: rec,
		Spawn: func(name string, args ...string) (dialogue.Transport, error) {
			return ft, nil
		},
	})

	require.NoError(t, s.Configure(context.Background()))

	assert.Equal(t, []string{"admin", "s3cret", "s3cret", "y", "", "y"}, ft.sent)
	assert.Equal(t, [][]string{
		{"fix", "--secure", "--set", "ms_name=scanner-1"},
		{"fix", "--set", "auto_update=yes"},
		{"fix", "--set", "disable_core_updates=no"},
		{"restart", "nessusd"},
		{"fix", "--secure", "--set", "managed=managed"},
		{"managed", "link", "--key=abc123", "--name=scanner-1", "--host=cloud.tenable.com", "--port=443"},
	}, settingArgs(rec.Calls))
}
