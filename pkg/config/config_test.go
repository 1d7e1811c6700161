package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 90*time.Second, cfg.Limits.MinRequestSpacing)
	assert.Equal(t, 8, cfg.Limits.HourlyCap)
	assert.Equal(t, 40, cfg.Limits.DailyCap)
	assert.Equal(t, 24*time.Hour, cfg.Limits.CheckpointCooldown)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.True(t, cfg.Browser.Headless)
}

func TestValidateRejectsInvertedSpacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MinRequestSpacing = 200 * time.Second
	cfg.Limits.MaxRequestSpacing = 100 * time.Second

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroCaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.HourlyCap = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestValidatePauseRequiresDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.PauseAfterFailures = 3
	cfg.Limits.FailurePause = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LISCRAPER_TARGET_DOMAIN", "staging.example.com")
	t.Setenv("LISCRAPER_HOURLY_CAP", "3")
	t.Setenv("LISCRAPER_HEADLESS", "false")
	t.Setenv("LISCRAPER_MIN_REQUEST_SPACING", "45s")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "staging.example.com", cfg.Target.Domain)
	assert.Equal(t, 3, cfg.Limits.HourlyCap)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Limits.MinRequestSpacing)
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("LISCRAPER_HOURLY_CAP", "lots")
	t.Setenv("LISCRAPER_MIN_REQUEST_SPACING", "-5s")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, 8, cfg.Limits.HourlyCap)
	assert.Equal(t, 90*time.Second, cfg.Limits.MinRequestSpacing)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "liscraper.yaml")

	cfg := DefaultConfig()
	cfg.Limits.DailyCap = 12
	cfg.Target.Domain = "example.org"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 12, loaded.Limits.DailyCap)
	assert.Equal(t, "example.org", loaded.Target.Domain)
}

func TestLoadFromFileExplicitMissingPathFails(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestLoadFromFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits: [not a map"), 0600))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}
