package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// mirroring t.Chdir from Go 1.24 (unavailable on the Go 1.21 toolchain).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, int64(32768), cfg.ReadLimit)
	require.Equal(t, 54*time.Second, cfg.PingPeriod)
	require.Equal(t, 32, cfg.SendBuffer)
	require.Equal(t, "http://localhost:3000", cfg.BackendURL)
	require.Equal(t, 3*time.Second, cfg.TypingTTL)
	require.Equal(t, 100, cfg.OfflineCap)
	require.Equal(t, 10, cfg.JoinLimit)
	require.Equal(t, 10*time.Second, cfg.JoinWindow)
	require.Empty(t, cfg.Secret)
}

func TestLoad_ReadsEnvSelectedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte("mode: debug\nport: 9090\nsecret: test-secret\ntyping_ttl: 5s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))

	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Mode)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "test-secret", cfg.Secret)
	require.Equal(t, 5*time.Second, cfg.TypingTTL)
	// untouched keys keep their defaults
	require.Equal(t, 32, cfg.SendBuffer)
}
