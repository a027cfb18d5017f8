package video

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestJPEGWriterPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.mjpeg")
	w, err := NewJPEGWriter(path, 100.0)
	require.NoError(t, err)

	payload := encodeTestJPEG(t, 4, 4)
	require.NoError(t, w.WriteVideoFrame(Frame{Timestamp: 100.1, JPEGBuffer: payload}))
	require.NoError(t, w.WriteVideoFrame(Frame{Timestamp: 100.2, JPEGBuffer: payload}))
	require.NoError(t, w.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append(payload, payload...), data)

	index, err := os.ReadFile(path + ".index.jsonl")
	require.NoError(t, err)
	dec := json.NewDecoder(bytes.NewReader(index))
	var entries []frameIndexEntry
	for dec.More() {
		var e frameIndexEntry
		require.NoError(t, dec.Decode(&e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, int64(0), entries[0].Offset)
	assert.Equal(t, int64(len(payload)), entries[1].Offset)
	assert.Equal(t, 100.1, entries[0].Timestamp)
}

func TestJPEGWriterRejectsNonMonotonicFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.mjpeg")
	w, err := NewJPEGWriter(path, 0)
	require.NoError(t, err)

	payload := encodeTestJPEG(t, 4, 4)
	require.NoError(t, w.WriteVideoFrame(Frame{Timestamp: 2.0, JPEGBuffer: payload}))

	err = w.WriteVideoFrame(Frame{Timestamp: 1.0, JPEGBuffer: payload})
	require.ErrorIs(t, err, ErrNonMonotonicTimestamp)

	err = w.WriteVideoFrame(Frame{Timestamp: 2.0, JPEGBuffer: payload})
	require.ErrorIs(t, err, ErrNonMonotonicTimestamp)

	require.NoError(t, w.Release())

	// The rejected frames must not appear in the container.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, len(payload))
}

func TestJPEGWriterRequiresBuffer(t *testing.T) {
	w, err := NewJPEGWriter(filepath.Join(t.TempDir(), "world.mjpeg"), 0)
	require.NoError(t, err)

	assert.Error(t, w.WriteVideoFrame(Frame{Timestamp: 1.0}))
}

func TestReleaseWithoutFrames(t *testing.T) {
	dir := t.TempDir()

	jw, err := NewJPEGWriter(filepath.Join(dir, "a.mjpeg"), 0)
	require.NoError(t, err)
	assert.ErrorIs(t, jw.Release(), ErrNoFramesWritten)
	assert.NoError(t, jw.Release())

	mw, err := NewMPEGWriter(filepath.Join(dir, "b.mjpeg"), 0)
	require.NoError(t, err)
	assert.ErrorIs(t, mw.Release(), ErrNoFramesWritten)

	fw, err := NewFLVWriter(filepath.Join(dir, "c.flv"), 0)
	require.NoError(t, err)
	assert.ErrorIs(t, fw.Release(), ErrNoFramesWritten)
}

func TestMPEGWriterEncodesPixels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.mjpeg")
	w, err := NewMPEGWriter(path, 10.0)
	require.NoError(t, err)

	frame := Frame{
		Timestamp: 10.5,
		Width:     8,
		Height:    6,
		Pixels:    make([]byte, 8*6*4),
	}
	require.NoError(t, w.WriteVideoFrame(frame))
	require.NoError(t, w.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// JPEG SOI marker.
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}

func TestMPEGWriterRejectsTruncatedPixels(t *testing.T) {
	w, err := NewMPEGWriter(filepath.Join(t.TempDir(), "world.mjpeg"), 0)
	require.NoError(t, err)

	err = w.WriteVideoFrame(Frame{Timestamp: 1.0, Width: 8, Height: 8, Pixels: make([]byte, 16)})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNonMonotonicTimestamp)
}

func TestFLVWriterWritesContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.flv")
	w, err := NewFLVWriter(path, 50.0)
	require.NoError(t, err)

	nalu := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88}
	require.NoError(t, w.WriteVideoFrame(Frame{Timestamp: 50.1, H264Buffer: nalu, Keyframe: true}))
	require.NoError(t, w.WriteVideoFrame(Frame{Timestamp: 50.2, H264Buffer: nalu}))

	err = w.WriteVideoFrame(Frame{Timestamp: 50.15, H264Buffer: nalu})
	require.ErrorIs(t, err, ErrNonMonotonicTimestamp)

	require.NoError(t, w.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 3)
	assert.Equal(t, []byte("FLV"), data[:3])
}

func TestTimebaseMillis(t *testing.T) {
	tb := timebase{start: 100.0}
	assert.Equal(t, uint32(0), tb.millis(99.0))
	assert.Equal(t, uint32(0), tb.millis(100.0))
	assert.Equal(t, uint32(1500), tb.millis(101.5))
}
