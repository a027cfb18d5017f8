package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.True(t, cfg.Recorder.RecordEye)
	assert.True(t, cfg.Recorder.RawJPEG)
	assert.Equal(t, "change_me", cfg.Recorder.UserInfo["additional_field"])
	assert.Equal(t, 5.0, cfg.Recorder.WarnThresholdGB)
	assert.Equal(t, 1.0, cfg.Recorder.AbortThresholdGB)
	assert.Equal(t, 33, cfg.Recorder.TickIntervalMs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:8537", cfg.Remote.Addr)
	assert.Equal(t, "127.0.0.1:9537", cfg.Metrics.Addr)
	assert.False(t, cfg.Remote.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestTickInterval(t *testing.T) {
	cfg := RecorderConfig{TickIntervalMs: 33}
	assert.Equal(t, 33*time.Millisecond, cfg.TickInterval())
}

func TestResolvePaths(t *testing.T) {
	t.Run("fills paths from data dir", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp/gazekit-test"

		err := cfg.ResolvePaths()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join("/tmp/gazekit-test", "recordings"), cfg.Recorder.RootDir)
		assert.Equal(t, filepath.Join("/tmp/gazekit-test", "user"), cfg.Recorder.UserDir)
		assert.Equal(t, filepath.Join("/tmp/gazekit-test", "gazekit.log"), cfg.Logging.File)
	})

	t.Run("keeps explicit paths", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp/gazekit-test"
		cfg.Recorder.RootDir = "/media/recordings"

		err := cfg.ResolvePaths()
		require.NoError(t, err)

		assert.Equal(t, "/media/recordings", cfg.Recorder.RootDir)
	})
}

func TestConfigSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "gazekit.json")

	cfg := DefaultConfig()
	cfg.Recorder.SessionName = "study_01"

	err := cfg.Save(configPath)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Config
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "study_01", loaded.Recorder.SessionName)
	assert.Equal(t, 5.0, loaded.Recorder.WarnThresholdGB)
}
