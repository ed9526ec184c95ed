package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 50, cfg.Scan.FastMax)
	assert.Equal(t, 20, cfg.Scan.DeepMax)
	assert.Equal(t, 5, cfg.Scan.AIMax)
	assert.Equal(t, 10*time.Second, cfg.Scan.FastInterval)
	assert.Equal(t, 60*time.Second, cfg.Scan.DeepInterval)
	assert.Equal(t, 300*time.Second, cfg.Scan.AIInterval)
	assert.Equal(t, 300*time.Second, cfg.Scan.CacheTTL)
	assert.Equal(t, 7.0, cfg.Scan.MinAIScore)
	assert.Equal(t, "medium", cfg.Scan.MinAIConfidence)
	assert.Equal(t, int64(10_000_000), cfg.Risk.InitialCapital)
	assert.Equal(t, 3, cfg.Signal.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Signal.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Signal.Timeout)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ENV", "perfection")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV must be one of")
}

func TestLoad_StageCapOrdering(t *testing.T) {
	t.Setenv("SCAN_DEEP_MAX", "80") // fast(50)보다 큼

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage caps must narrow")
}

func TestLoad_InvalidConfidence(t *testing.T) {
	t.Setenv("SCAN_MIN_AI_CONFIDENCE", "extreme")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ScanOverrides(t *testing.T) {
	t.Setenv("SCAN_FAST_INTERVAL", "5s")
	t.Setenv("SCAN_MIN_AI_SCORE", "8.5")
	t.Setenv("SCAN_MIN_AI_CONFIDENCE", "high")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Scan.FastInterval)
	assert.Equal(t, 8.5, cfg.Scan.MinAIScore)
	assert.Equal(t, "high", cfg.Scan.MinAIConfidence)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SCAN_DEEP_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Scan.DeepInterval)
}
