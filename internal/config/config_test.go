package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvJWTSecret, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Bearer 123", cfg.Auth.AdminCredential)
	assert.Equal(t, "Bearer 123", cfg.Client.Authorization)
	assert.Equal(t, 10*time.Millisecond, cfg.Client.BatchWait)
	assert.Equal(t, 16, cfg.Client.MaxBatch)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1024, cfg.Audit.BufferSize)
	assert.Equal(t, 200, cfg.Audit.BatchSize)
	assert.Equal(t, time.Second, cfg.Audit.BatchWait)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(EnvPort, "3000")
	t.Setenv(EnvJWTSecret, "s3cret")
	t.Setenv("TRPC_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, ":3000", cfg.HTTP.Addr())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.RequireServer())
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvJWTSecret, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: \"8080\"\nclient:\n  batch_wait: 0s\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, time.Duration(0), cfg.Client.BatchWait)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRequireServer(t *testing.T) {
	cases := map[string]struct {
		port, secret string
		missing      []string
		invalid      bool
	}{
		"missing both":   {missing: []string{EnvPort, EnvJWTSecret}},
		"missing port":   {secret: "s", missing: []string{EnvPort}},
		"missing secret": {port: "3000", missing: []string{EnvJWTSecret}},
		"bad port":       {port: "http", secret: "s", invalid: true},
		"port too large": {port: "70000", secret: "s", invalid: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: tc.port}, Auth: AuthConfig{JWTSecret: tc.secret}}

			err := cfg.RequireServer()

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tc.missing, ce.Missing)
			assert.Equal(t, tc.invalid, len(ce.Invalid) > 0)
			for _, m := range tc.missing {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}
