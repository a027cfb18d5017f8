package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingWriterCreatesFileAndParents(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "gazekit.log")

	w, err := NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)
	defer w.Close()

	assert.FileExists(t, logFile)
}

func TestRotatingWriterAppendsAcrossReopen(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gazekit.log")

	w, err := NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)
	_, err = w.Write([]byte("first session\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)
	defer w.Close()
	_, err = w.Write([]byte("second session\n"))
	require.NoError(t, err)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "first session")
	assert.Contains(t, string(content), "second session")
}

func TestRotatingWriterRotatesAtSizeLimit(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gazekit.log")

	// 0 MB limit forces a rotation on the second write
	w, err := NewRotatingWriter(logFile, 0, 7, false)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("before rotation\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("after rotation\n"))
	require.NoError(t, err)

	rotated, err := filepath.Glob(logFile + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, rotated)

	// The live file only carries writes made after the rename
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "before rotation")
	assert.Contains(t, string(content), "after rotation")
}

func TestCompressFileReplacesOriginal(t *testing.T) {
	rotated := filepath.Join(t.TempDir(), "gazekit.log.20260101T000000")
	require.NoError(t, os.WriteFile(rotated, []byte("rotated entries"), 0o644))

	w := &RotatingWriter{compress: true}
	require.NoError(t, w.compressFile(rotated))

	assert.FileExists(t, rotated+".gz")
	assert.NoFileExists(t, rotated)
}

func TestCleanupRemovesExpiredRotations(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gazekit.log")

	expired := logFile + ".20240101T000000"
	require.NoError(t, os.WriteFile(expired, []byte("stale"), 0o644))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(expired, old, old))

	recent := logFile + "." + time.Now().Format(rotatedSuffixFormat)
	require.NoError(t, os.WriteFile(recent, []byte("fresh"), 0o644))

	w, err := NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)
	defer w.Close()

	w.cleanup()

	assert.NoFileExists(t, expired)
	assert.FileExists(t, recent)
	assert.FileExists(t, logFile)
}
