package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticFrames(t *testing.T) {
	s := NewSynthetic(64, 48, 30)

	caps := s.Capabilities()
	assert.False(t, caps.SupportsJPEG)
	assert.Equal(t, 64, caps.FrameWidth)
	assert.Equal(t, 48, caps.FrameHeight)

	frame, ok := s.RecentFrame()
	require.True(t, ok)
	assert.Equal(t, 64, frame.Width)
	assert.Equal(t, 48, frame.Height)
	assert.Len(t, frame.Pixels, 64*48*4)
	assert.Greater(t, frame.Timestamp, 0.0)
}

func TestSyntheticTimestampQuantized(t *testing.T) {
	s := NewSynthetic(8, 8, 10)
	now := 100.0
	s.clock = func() float64 { return now }

	a, _ := s.RecentFrame()
	now = 100.05 // still inside the same 100ms frame interval
	b, _ := s.RecentFrame()
	now = 100.15
	c, _ := s.RecentFrame()

	assert.Equal(t, a.Timestamp, b.Timestamp)
	assert.Greater(t, c.Timestamp, b.Timestamp)
}

func TestSyntheticIntrinsics(t *testing.T) {
	s := NewSynthetic(1280, 720, 30)
	in := s.Intrinsics()
	assert.Equal(t, "dummy", in.CameraModel)
	assert.Equal(t, [2]int{1280, 720}, in.Resolution)
	require.Len(t, in.CameraMatrix, 3)
	assert.Equal(t, 640.0, in.CameraMatrix[0][2])
}
