// 指示: miu200521358
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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ConvertModeReplace, cfg.Convert.Mode)
	assert.False(t, cfg.Convert.NoScale)
	assert.False(t, cfg.Convert.ClearParents)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Log.ProgressInterval())
}

func TestLoadTomlFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mu_fk2ik.toml")
	content := "[convert]\nmode = \"append\"\nno_scale = true\n\n[log]\nlevel = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("MU_FK2IK_CONVERT_CLEAR_PARENTS", "true")
	t.Setenv("MU_FK2IK_LOG_PROGRESS_INTERVAL_MS", "0")
	t.Setenv("MU_FK2IK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ConvertModeAppend, cfg.Convert.Mode)
	assert.True(t, cfg.Convert.NoScale)
	assert.True(t, cfg.Convert.ClearParents)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 0, cfg.Log.ProgressIntervalMs)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("MU_FK2IK_CONVERT_MODE", "merge")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "convert.no_scale", envKey("MU_FK2IK_CONVERT_NO_SCALE"))
	assert.Equal(t, "log.progress_interval_ms", envKey("MU_FK2IK_LOG_PROGRESS_INTERVAL_MS"))
}
