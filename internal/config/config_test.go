package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, 3333, cfg.Port)
	assert.Empty(t, cfg.APIKey)
	assert.Contains(t, cfg.SessionsDir, ".wagate")
	assert.Contains(t, cfg.StoreDir, ".wagate")
	assert.Equal(t, 5, cfg.QR.MaxAttempts)
	assert.Equal(t, "1s", cfg.QR.Interval)
	assert.False(t, cfg.Verbose)
}

func TestLoadUsesDefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3333, cfg.Port)
	assert.Equal(t, 5, cfg.QR.MaxAttempts)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("WAGATE_API_KEY", "env-secret")
	t.Setenv("WAGATE_PORT", "8088")
	t.Setenv("WAGATE_SESSIONS_DIR", "/tmp/wagate-sessions")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.APIKey)
	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, "/tmp/wagate-sessions", cfg.SessionsDir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wagate.yaml")
	content := `api_key: file-secret
port: 9999
qr:
  max_attempts: 10
  interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.APIKey)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 10, cfg.QR.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.QR.PollInterval())
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPollInterval(t *testing.T) {
	assert.Equal(t, 2*time.Second, QRConfig{Interval: "2s"}.PollInterval())
	assert.Equal(t, time.Second, QRConfig{Interval: ""}.PollInterval())
	assert.Equal(t, time.Second, QRConfig{Interval: "garbage"}.PollInterval())
	assert.Equal(t, time.Second, QRConfig{Interval: "-5s"}.PollInterval())
}
