package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("MESSENGER_MODE", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 10*time.Minute, cfg.Signaling.SessionTTL)
	assert.Equal(t, 256, cfg.Signaling.MaxCandidates)
	assert.Zero(t, cfg.Calls.PendingTTL)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte(`
mode: release
port: 9000
secret: s3cret
database:
  driver: postgres
  dsn: postgres://localhost/messenger
signaling:
  session_ttl: 30s
  max_candidates: 16
calls:
  pending_ttl: 2m
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.prod.yaml"), yaml, 0o644))
	t.Setenv("CONFIG_ENV", "prod")
	t.Setenv("MESSENGER_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/messenger", cfg.Database.DSN)
	assert.Equal(t, 30*time.Second, cfg.Signaling.SessionTTL)
	assert.Equal(t, 16, cfg.Signaling.MaxCandidates)
	assert.Equal(t, 2*time.Minute, cfg.Calls.PendingTTL)
}

func TestLoad_ReleaseRequiresSecret(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("MESSENGER_MODE", "release")
	t.Setenv("MESSENGER_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
