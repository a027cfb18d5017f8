package video

import (
	"errors"
	"fmt"
)

// ErrNonMonotonicTimestamp reports a frame whose timestamp does not advance
// past the previously written frame. The offending frame is not written.
var ErrNonMonotonicTimestamp = errors.New("non-monotonic frame timestamp")

// ErrNoFramesWritten reports a Release on a writer that never received a
// frame. Callers treat it as non-fatal.
var ErrNoFramesWritten = errors.New("no video frames were written")

// Frame is one captured video frame. Timestamp is in the synchronized clock
// domain. Pixels holds packed RGBA data; JPEGBuffer and H264Buffer carry
// pre-compressed payloads when the capture source provides them.
type Frame struct {
	Timestamp  float64
	Width      int
	Height     int
	Pixels     []byte
	JPEGBuffer []byte
	H264Buffer []byte
	Keyframe   bool
}

// Writer encodes a sequence of timestamped frames into a container file.
// WriteVideoFrame returns ErrNonMonotonicTimestamp (wrapped) when a frame's
// timestamp does not advance. Release finalizes the container and returns
// ErrNoFramesWritten when nothing was ever written.
type Writer interface {
	WriteVideoFrame(Frame) error
	Release() error
}

// timebase converts synchronized timestamps into container time and enforces
// monotonicity.
type timebase struct {
	start float64
	last  float64
	count int
}

func (tb *timebase) admit(ts float64) error {
	if tb.count > 0 && ts <= tb.last {
		return fmt.Errorf("%w: %.6f does not advance past %.6f", ErrNonMonotonicTimestamp, ts, tb.last)
	}
	tb.last = ts
	tb.count++
	return nil
}

func (tb *timebase) millis(ts float64) uint32 {
	rel := ts - tb.start
	if rel < 0 {
		rel = 0
	}
	return uint32(rel * 1000)
}
