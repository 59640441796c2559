package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50.0, cfg.Tracking.ThresholdFeet)
	assert.Equal(t, 0.003, cfg.Tracking.BoxMarginDeg)
	assert.Equal(t, time.Hour, cfg.Tracking.ActiveWindow())
	assert.Equal(t, 2*time.Minute, cfg.Tracking.ReconcileInterval())
	assert.Equal(t, 4, cfg.Tracking.Concurrency)
	assert.Equal(t, 100, cfg.Tracking.NotifiedCapacity)
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nearmatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[tracking]
threshold_feet = 100.0
concurrency = 8

[oracle]
provider = "openai"
strictness = "lenient"
`), 0o600))

	t.Setenv("NEARMATCH_CONFIG", path)
	t.Setenv("NEARMATCH_EVAL_CONCURRENCY", "2")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.Tracking.ThresholdFeet)
	assert.Equal(t, 2, cfg.Tracking.Concurrency)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, "lenient", cfg.Oracle.Strictness)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, 0.003, cfg.Tracking.BoxMarginDeg)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("NEARMATCH_STORE", "cassandra")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("NEARMATCH_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	_, err := Load()
	assert.Error(t, err)
}
