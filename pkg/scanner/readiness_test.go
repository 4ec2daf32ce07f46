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
	"github.com/MoeTools/nessus/pkg/errors"
	"github.com/MoeTools/nessus/pkg/runner"
)

func newReadinessScanner(t *testing.T, cfg config.Config) *Scanner {
	t.Helper()
	return New(Options{
		Config:       cfg,
		Logger:       zerolog.New(io.Discard),
		Runner:       &runner.Recorder{},
		PollInterval: 10 * time.Millisecond,
	})
}

func TestWaitForDatabaseAlreadyPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.db")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	cfg := testConfig()
	cfg.Paths.Database = path

	s := newReadinessScanner(t, cfg)
	require.NoError(t, s.WaitForDatabase(context.Background()))
}

func TestWaitForDatabaseAppearsLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.db")

	cfg := testConfig()
	cfg.Paths.Database = path
	cfg.Readiness.Timeout = 2 * time.Second

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("data"), 0o644)
	}()

	s := newReadinessScanner(t, cfg)
	require.NoError(t, s.WaitForDatabase(context.Background()))
}

func TestWaitForDatabaseEmptyFileIsNotReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg := testConfig()
	cfg.Paths.Database = path
	cfg.Readiness.Timeout = 100 * time.Millisecond

	s := newReadinessScanner(t, cfg)
	err := s.WaitForDatabase(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrReadinessTimeout))
}

func TestWaitForDatabaseTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Readiness.Timeout = 100 * time.Millisecond

	s := newReadinessScanner(t, cfg)

	start := time.Now()
	err := s.WaitForDatabase(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrReadinessTimeout))
	assert.Less(t, time.Since(start), time.Second, "timeout must be bounded")
}

func TestWaitForDatabaseCanceledContext(t *testing.T) {
	cfg := testConfig()
	cfg.Readiness.Timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newReadinessScanner(t, cfg)
	err := s.WaitForDatabase(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrReadinessTimeout))
}
