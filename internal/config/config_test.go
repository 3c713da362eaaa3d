package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "s3cret")
	t.Setenv("METRICS_INTERVAL_MS", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LIVEKIT_HOST", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsInterval, cfg.MetricsInterval)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.LiveKit.Enabled())
}

func TestLoadRequiresAccessSecret(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ACCESS_SECRET=fromfile\nMETRICS_INTERVAL_MS=500\nREDIS_ADDR=localhost\nREDIS_DB_NUMBER=1\n"), 0o600))
	// godotenv never overrides variables which are already set
	os.Unsetenv("ACCESS_SECRET")
	t.Cleanup(func() {
		os.Unsetenv("METRICS_INTERVAL_MS")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("REDIS_DB_NUMBER")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.AccessSecret)
	assert.Equal(t, 500*time.Millisecond, cfg.MetricsInterval)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 1, cfg.Redis.DB)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "s3cret")
	t.Setenv("METRICS_INTERVAL_MS", "soon")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("METRICS_INTERVAL_MS", "-5")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadMissingEnvFileIsTolerated(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "s3cret")
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
