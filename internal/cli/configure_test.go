package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazekit/gazekit/internal/config"
)

func TestConfigureWritesDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gazekit.json")

	cfgFile = path
	configureForce = false
	t.Cleanup(func() { cfgFile = "" })

	require.NoError(t, runConfigure(configureCmd, nil))
	assert.FileExists(t, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Recorder.WarnThresholdGB)
}

func TestConfigureRefusesToOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gazekit.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	cfgFile = path
	configureForce = false
	t.Cleanup(func() { cfgFile = "" })

	err := runConfigure(configureCmd, nil)
	assert.Error(t, err)

	configureForce = true
	t.Cleanup(func() { configureForce = false })
	assert.NoError(t, runConfigure(configureCmd, nil))
}
