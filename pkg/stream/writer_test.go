package stream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendPreservesOrder(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, "gaze")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		err := w.Append(Record{
			Topic:     "gaze.3d",
			Timestamp: float64(i) + 0.5,
			Data:      map[string]any{"confidence": 0.9},
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	recs, err := Read(dir, "gaze")
	require.NoError(t, err)
	require.Len(t, recs, 10)
	for i, rec := range recs {
		assert.Equal(t, float64(i)+0.5, rec.Timestamp)
		assert.Equal(t, "gaze.3d", rec.Topic)
	}
}

func TestWriterExtendStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, "pupil")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Extend([]Record{{Topic: "pupil", Timestamp: 1.0}})
	assert.Error(t, err)
	assert.Equal(t, 0, w.Count())
}

func TestWriterCloseTwice(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "notify")
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWriterSynthesizesTimestamp(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, "notify")
	require.NoError(t, err)
	require.NoError(t, w.Append(Record{Topic: "notify.something"}))
	require.NoError(t, w.Close())

	recs, err := Read(dir, "notify")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Greater(t, recs[0].Timestamp, 0.0)
}

func TestRegistryLazyCreation(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir)

	assert.Equal(t, 0, reg.Len())

	w1, err := reg.Get("gaze")
	require.NoError(t, err)
	w2, err := reg.Get("gaze")
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get("pupil")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gaze", "pupil"}, reg.Names())

	_, err = reg.Get("")
	assert.Error(t, err)
}

func TestRegistryCloseAllDiscardsWriters(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir)

	w, err := reg.Get("gaze")
	require.NoError(t, err)
	require.NoError(t, w.Append(Record{Topic: "gaze", Timestamp: 1.0}))

	require.NoError(t, reg.CloseAll())
	assert.Equal(t, 0, reg.Len())

	_, err = os.Stat(filepath.Join(dir, "gaze.jsonl"))
	assert.NoError(t, err)

	// CloseAll on an empty registry is a no-op.
	require.NoError(t, reg.CloseAll())
}
