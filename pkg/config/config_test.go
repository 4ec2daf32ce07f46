package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeTools/nessus/pkg/errors"
)

// validConfig returns a configuration that passes Validate; tests mutate
// single fields to probe individual invariants.
func validConfig() Config {
	return Config{
		Name:       "scanner-1",
		AutoUpdate: "all",
		Manager:    Manager{Host: "cloud.tenable.com", Port: 443},
		Retry:      Retry{Delay: 30 * time.Second},
		Readiness:  Readiness{Timeout: 120 * time.Second},
		Dialogue:   Dialogue{Timeout: 30 * time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "minimal_valid",
			mutate: func(c *Config) {},
		},
		{
			name: "credentials_together",
			mutate: func(c *Config) {
				c.Username = "admin"
				c.Password = "s3cret"
			},
		},
		{
			name:    "username_without_password",
			mutate:  func(c *Config) { c.Username = "admin" },
			wantErr: "username and password must be provided together",
		},
		{
			name:    "password_without_username",
			mutate:  func(c *Config) { c.Password = "s3cret" },
			wantErr: "username and password must be provided together",
		},
		{
			name:   "activation_code_alone",
			mutate: func(c *Config) { c.ActivationCode = "AAAA-BBBB" },
		},
		{
			name:   "linking_key_alone",
			mutate: func(c *Config) { c.LinkingKey = "abc123" },
		},
		{
			name: "activation_code_and_linking_key",
			mutate: func(c *Config) {
				c.ActivationCode = "AAAA-BBBB"
				c.LinkingKey = "abc123"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "invalid_update_mode",
			mutate:  func(c *Config) { c.AutoUpdate = "sometimes" },
			wantErr: "invalid update mode",
		},
		{
			name:    "zero_retry_delay",
			mutate:  func(c *Config) { c.Retry.Delay = 0 },
			wantErr: "retry delay must be positive",
		},
		{
			name:    "zero_readiness_timeout",
			mutate:  func(c *Config) { c.Readiness.Timeout = 0 },
			wantErr: "readiness timeout must be positive",
		},
		{
			name:    "zero_dialogue_timeout",
			mutate:  func(c *Config) { c.Dialogue.Timeout = 0 },
			wantErr: "dialogue timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
		})
	}
}

func TestHasCredentials(t *testing.T) {
	assert.False(t, Config{}.HasCredentials())
	assert.False(t, Config{Username: "admin"}.HasCredentials())
	assert.False(t, Config{Password: "s3cret"}.HasCredentials())
	assert.True(t, Config{Username: "admin", Password: "s3cret"}.HasCredentials())
}
